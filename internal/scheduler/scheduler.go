package scheduler

import (
	"context"
	"sync"
	"time"

	"jobtracker/internal/logger"
)

type Task func(ctx context.Context) error

// Every runs task right away and then on every tick until ctx is done.
// Errors are logged and do not stop the loop. Runs never overlap.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	log := logger.FromContext(ctx).WithField("task", name)
	run := func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			log.WithError(err).Error("scheduled run failed")
			return
		}
		log.WithField(logger.FieldDurationMs, time.Since(start).Milliseconds()).Debug("scheduled run ok")
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}

// Status describes the last run of a tracked job.
type Status struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	LastAdded int    `json:"last_added"`
	Running   bool   `json:"running"`
}

// Tracker records the Status of runs made through it. The zero value is
// ready to use.
type Tracker struct {
	mu  sync.Mutex
	st  Status
	now func() time.Time
}

func (t *Tracker) Run(ctx context.Context, fn func(ctx context.Context) (added int, err error)) (int, error) {
	t.mu.Lock()
	t.st.Running = true
	t.st.LastRunAt = t.stamp()
	t.mu.Unlock()

	added, err := fn(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.st.Running = false
	t.st.LastAdded = added
	if err != nil {
		t.st.LastError = err.Error()
	} else {
		t.st.LastError = ""
		t.st.LastOkAt = t.stamp()
	}
	return added, err
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st
}

func (t *Tracker) stamp() string {
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	return now().Format(time.RFC3339)
}
