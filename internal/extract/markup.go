package extract

import (
	"bytes"
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"jobtracker/internal/domain"
	"jobtracker/internal/logger"
	"jobtracker/internal/netutil"
)

// DefaultSelectors match LinkedIn's public (signed-out) posting page.
var DefaultSelectors = Selectors{
	Title:    "h1",
	Company:  "a.topcard__org-name-link",
	Location: "span.topcard__flavor.topcard__flavor--bullet",
}

type markupField struct {
	selector string
	assign   func(p *domain.JobPosting, v string)
}

// MarkupResolver scrapes the public posting page.
type MarkupResolver struct {
	rc      *resty.Client
	limiter *netutil.HostLimiter
	fields  []markupField
}

func NewMarkupResolver(cfg Config) *MarkupResolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0"
	}
	sel := cfg.Selectors
	if sel.Title == "" {
		sel.Title = DefaultSelectors.Title
	}
	if sel.Company == "" {
		sel.Company = DefaultSelectors.Company
	}
	if sel.Location == "" {
		sel.Location = DefaultSelectors.Location
	}

	rc := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	return &MarkupResolver{
		rc:      rc,
		limiter: cfg.Limiter,
		fields: []markupField{
			{sel.Title, func(p *domain.JobPosting, v string) { p.Title = v }},
			{sel.Company, func(p *domain.JobPosting, v string) { p.Company = v }},
			{sel.Location, func(p *domain.JobPosting, v string) { p.Location = netutil.NormalizeLocation(v) }},
		},
	}
}

// Resolve fetches url. A non-2xx answer or a transport error leaves the
// posting unresolved.
func (r *MarkupResolver) Resolve(ctx context.Context, url string) domain.JobPosting {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldComponent: "extract.markup",
		logger.FieldURL:       url,
	})

	if err := r.limiter.WaitURL(ctx, url); err != nil {
		log.WithError(err).Warn("failed to fetch job page")
		return domain.Unresolved(url)
	}

	resp, err := r.rc.R().SetContext(ctx).Get(url)
	if err != nil {
		log.WithError(err).Warn("failed to fetch job page")
		return domain.Unresolved(url)
	}
	if !resp.IsSuccess() {
		log.WithField(logger.FieldStatus, resp.StatusCode()).Warn("job page returned non-success status")
		return domain.Unresolved(url)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		log.WithError(err).Warn("failed to parse job page")
		return domain.Unresolved(url)
	}
	return r.postingFromDoc(doc, url)
}

func (r *MarkupResolver) postingFromDoc(doc *goquery.Document, url string) domain.JobPosting {
	p := domain.Unresolved(url)
	for _, f := range r.fields {
		if v := netutil.CleanText(doc.Find(f.selector).First().Text()); v != "" {
			f.assign(&p, v)
		}
	}
	if p.Location == "" {
		p.Location = domain.NotFound
	}
	return p
}
