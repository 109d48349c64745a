// Package intake turns job URLs into tracker rows.
package intake

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobtracker/internal/domain"
	"jobtracker/internal/extract"
	"jobtracker/internal/logger"
	"jobtracker/internal/source"
	"jobtracker/internal/store"
)

const (
	MsgNoURL    = "No URL entered."
	MsgNotFound = "Could not find job details. Please check the URL and try again."
)

var (
	ErrNoFilePath   = errors.New("no file path entered")
	ErrFileNotFound = errors.New("file not found")
	ErrNoURLs       = source.ErrNoURLs
)

// RowAppender persists one tracker row.
type RowAppender interface {
	Append(ctx context.Context, row []any) error
}

// Journal records every intake attempt. Optional.
type Journal interface {
	Record(ctx context.Context, e store.Entry) error
}

type Option func(*Pipeline)

func WithJournal(j Journal) Option {
	return func(p *Pipeline) { p.journal = j }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithNotify registers a callback run after each row is appended.
func WithNotify(fn func(ctx context.Context, row domain.TrackerRow)) Option {
	return func(p *Pipeline) { p.notify = fn }
}

// Pipeline processes postings one at a time. It is not safe for concurrent
// use; callers that share one serialize access.
type Pipeline struct {
	resolver extract.Resolver
	appender RowAppender
	journal  Journal
	notify   func(ctx context.Context, row domain.TrackerRow)
	now      func() time.Time
}

func New(resolver extract.Resolver, appender RowAppender, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver: resolver,
		appender: appender,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddSingle resolves url and appends it. The message is meant for the user.
func (p *Pipeline) AddSingle(ctx context.Context, url, tag string) (bool, string) {
	url = strings.TrimSpace(url)
	if url == "" {
		return false, MsgNoURL
	}
	ctx = logger.WithFields(ctx, logger.Fields{logger.FieldURL: url, logger.FieldSource: tag})

	posting := p.resolver.Resolve(ctx, url)
	if !posting.Resolved() {
		p.record(ctx, store.Entry{URL: url, Outcome: store.OutcomeUnresolved, Source: tag})
		return false, MsgNotFound
	}

	if err := p.appendPosting(ctx, url, posting, tag, ""); err != nil {
		return false, FailureMessage(err)
	}
	return true, fmt.Sprintf("Job '%s' at '%s' added to your tracker!", posting.Title, posting.Company)
}

// AddBulk imports every URL listed in the file at path and returns how many
// rows were appended. Unresolved postings are skipped without an error.
func (p *Pipeline) AddBulk(ctx context.Context, path, tag string) (int, error) {
	path, err := CheckFile(path)
	if err != nil {
		return 0, err
	}

	urls, err := source.ReadURLs(path)
	if err != nil {
		if errors.Is(err, ErrNoURLs) {
			return 0, err
		}
		return 0, fmt.Errorf("error reading file: %w", err)
	}
	return p.AddURLs(ctx, urls, tag)
}

// CheckFile trims path and reports ErrNoFilePath or ErrFileNotFound the way
// AddBulk does, so callers can fail before building a pipeline.
func CheckFile(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrNoFilePath
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("error reading file: %w", err)
	}
	return path, nil
}

// AddURLs processes urls in order. A posting that cannot be resolved is
// skipped; a row that cannot be saved stops the batch with a *PersistError.
func (p *Pipeline) AddURLs(ctx context.Context, urls []string, tag string) (int, error) {
	batch := uuid.NewString()
	ctx = logger.WithFields(ctx, logger.Fields{logger.FieldBatchID: batch, logger.FieldSource: tag})
	log := logger.FromContext(ctx)
	start := p.now()

	added, skipped := 0, 0
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			log.WithField(logger.FieldCount, added).Warn("import canceled")
			return added, fmt.Errorf("import canceled after %d jobs: %w", added, err)
		}

		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		uctx := logger.WithField(ctx, logger.FieldURL, url)

		posting := p.resolver.Resolve(uctx, url)
		if !posting.Resolved() {
			skipped++
			p.record(uctx, store.Entry{URL: url, Outcome: store.OutcomeUnresolved, Source: tag, BatchID: batch})
			continue
		}

		if err := p.appendPosting(uctx, url, posting, tag, batch); err != nil {
			return added, &PersistError{Added: added, Err: err}
		}
		added++
	}

	log.WithFields(logger.Fields{
		logger.FieldCount:      added,
		"skipped":              skipped,
		logger.FieldDurationMs: p.now().Sub(start).Milliseconds(),
	}).Info("import finished")
	return added, nil
}

func (p *Pipeline) appendPosting(ctx context.Context, url string, posting domain.JobPosting, tag, batch string) error {
	row := domain.NewTrackerRow(posting, p.now(), tag)
	entry := store.Entry{
		URL:     url,
		Title:   posting.Title,
		Company: posting.Company,
		Source:  row.Source,
		BatchID: batch,
	}

	if err := p.appender.Append(ctx, row.Values()); err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to append row")
		entry.Outcome = store.OutcomeFailed
		entry.Detail = err.Error()
		p.record(ctx, entry)
		return err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		"title":   posting.Title,
		"company": posting.Company,
	}).Info("job added")
	entry.Outcome = store.OutcomeAdded
	p.record(ctx, entry)

	if p.notify != nil {
		p.notify(ctx, row)
	}
	return nil
}

func (p *Pipeline) record(ctx context.Context, e store.Entry) {
	if p.journal == nil {
		return
	}
	e.CreatedAt = p.now()
	if err := p.journal.Record(ctx, e); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to write intake journal")
	}
}
