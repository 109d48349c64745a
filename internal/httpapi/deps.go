package httpapi

import (
	"context"
	"sync"

	"jobtracker/internal/events"
	"jobtracker/internal/logger"
	"jobtracker/internal/scheduler"
	"jobtracker/internal/source/mailbox"
	"jobtracker/internal/store"
)

// Intake is the part of the intake pipeline the engine drives.
type Intake interface {
	AddSingle(ctx context.Context, url, tag string) (bool, string)
	AddBulk(ctx context.Context, path, tag string) (int, error)
}

type History interface {
	List(ctx context.Context, opts store.ListOpts) ([]store.Entry, error)
}

type MailboxRunner interface {
	Run(ctx context.Context) (mailbox.Result, error)
}

type Deps struct {
	Intake Intake
	Hub    *events.Hub
	Log    *logger.Logger

	// Optional; nil disables the matching endpoints.
	History       History
	Mailbox       MailboxRunner
	MailboxStatus func() scheduler.Status

	// IntakeLock serializes intake with work running outside the engine,
	// such as scheduled mailbox imports. Nil means a lock private to the
	// router.
	IntakeLock *sync.Mutex

	// AllowedOrigins are the browser origins allowed to call the engine.
	// Empty refuses every request that carries an Origin header.
	AllowedOrigins []string

	// UploadDir holds uploaded import files while they are processed.
	// Empty means os.TempDir().
	UploadDir string

	// POST /shutdown is only routed when both are set.
	ShutdownToken string
	Shutdown      func()
}
