// Package mailbox imports postings from LinkedIn job-alert emails.
package mailbox

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"

	"jobtracker/internal/domain"
	"jobtracker/internal/logger"
)

// URLAdder is satisfied by *intake.Pipeline.
type URLAdder interface {
	AddURLs(ctx context.Context, urls []string, tag string) (int, error)
}

type Options struct {
	SubjectAny  []string
	MaxMessages int
	MarkSeen    bool
}

type Result struct {
	Messages int `json:"messages"`
	Matched  int `json:"matched"`
	Links    int `json:"links"`
	Added    int `json:"added"`
}

// Importer reads unseen alerts and feeds their posting links to the intake
// pipeline.
type Importer struct {
	open  func(ctx context.Context) (Mailbox, error)
	adder URLAdder
	opts  Options
}

func NewImporter(open func(ctx context.Context) (Mailbox, error), adder URLAdder, opts Options) *Importer {
	return &Importer{open: open, adder: adder, opts: opts}
}

// Run imports once. Messages are only marked seen after their links were
// processed without a persistence failure.
func (im *Importer) Run(ctx context.Context) (Result, error) {
	ctx = logger.SetComponent(ctx, "mailbox")
	log := logger.FromContext(ctx)

	var res Result
	mb, err := im.open(ctx)
	if err != nil {
		return res, err
	}
	defer func() {
		if err := mb.Close(); err != nil {
			log.WithError(err).Debug("close mailbox")
		}
	}()

	msgs, err := mb.Unseen(ctx, im.opts.MaxMessages)
	if err != nil {
		return res, err
	}
	res.Messages = len(msgs)

	var urls []string
	seen := map[string]bool{}
	processed := make([]imap.UID, 0, len(msgs))

	for _, m := range msgs {
		subject, plain, htmlBody := parseRFC822(m.Raw, m.Subject)
		if len(im.opts.SubjectAny) > 0 && !containsAnyCI(subject, im.opts.SubjectAny) {
			continue
		}
		res.Matched++

		links := ExtractJobLinks(htmlBody, plain)
		log.WithFields(logger.Fields{"subject": subject, logger.FieldCount: len(links)}).Debug("parsed alert")
		for _, u := range links {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
		processed = append(processed, m.UID)
	}
	res.Links = len(urls)

	if len(urls) > 0 {
		added, err := im.adder.AddURLs(ctx, urls, domain.SourceMailbox)
		res.Added = added
		if err != nil {
			return res, err
		}
	}

	if im.opts.MarkSeen && len(processed) > 0 {
		if err := mb.MarkSeen(processed); err != nil {
			return res, fmt.Errorf("mark alerts seen: %w", err)
		}
	}

	log.WithFields(logger.Fields{
		"messages": res.Messages,
		"links":    res.Links,
		"added":    res.Added,
	}).Info("mailbox import finished")
	return res, nil
}
