// Package extract turns a job posting URL into a domain.JobPosting.
//
// Resolvers are best effort: they never return an error. Anything that goes
// wrong while fetching or parsing one posting is logged and turned into an
// unresolved posting, so a batch keeps going.
package extract

import (
	"context"
	"fmt"
	"time"

	"jobtracker/internal/domain"
	"jobtracker/internal/netutil"
)

type Resolver interface {
	Resolve(ctx context.Context, url string) domain.JobPosting
}

// JobAPI is the part of the LinkedIn client the API resolver needs.
type JobAPI interface {
	GetJob(ctx context.Context, id string) (map[string]any, error)
}

type Selectors struct {
	Title    string
	Company  string
	Location string
}

type Config struct {
	Mode      string // "api" or "markup"
	UserAgent string
	Timeout   time.Duration
	Selectors Selectors
	Limiter   *netutil.HostLimiter
}

// New picks the resolver for cfg.Mode. api is only needed in "api" mode.
func New(cfg Config, api JobAPI) (Resolver, error) {
	switch cfg.Mode {
	case "", "api":
		if api == nil {
			return nil, fmt.Errorf("api resolver needs a linkedin client")
		}
		return NewAPIResolver(api), nil
	case "markup":
		return NewMarkupResolver(cfg), nil
	default:
		return nil, fmt.Errorf("unknown extractor mode %q", cfg.Mode)
	}
}
