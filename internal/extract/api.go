package extract

import (
	"context"
	"strings"

	"jobtracker/internal/domain"
	"jobtracker/internal/linkedin"
	"jobtracker/internal/logger"
	"jobtracker/internal/netutil"
)

const (
	decoCompany     = "com.linkedin.voyager.deco.jobs.web.shared.WebCompactJobPostingCompany"
	decoOffsiteJobs = "com.linkedin.voyager.jobs.OffsiteApply"
)

// apiField maps one JobPosting field to the response paths tried in order.
// The first non-empty string wins; otherwise the field keeps its default.
type apiField struct {
	name   string
	paths  [][]string
	assign func(p *domain.JobPosting, v string)
}

var apiFields = []apiField{
	{
		name:   "title",
		paths:  [][]string{{"title"}, {"data", "title"}},
		assign: func(p *domain.JobPosting, v string) { p.Title = netutil.CleanText(v) },
	},
	{
		name: "company",
		paths: [][]string{
			{"companyName"},
			{"companyDetails", decoCompany, "companyResolutionResult", "name"},
			{"data", "companyName"},
		},
		assign: func(p *domain.JobPosting, v string) { p.Company = netutil.CleanText(v) },
	},
	{
		name:   "location",
		paths:  [][]string{{"formattedLocation"}, {"data", "formattedLocation"}},
		assign: func(p *domain.JobPosting, v string) { p.Location = netutil.NormalizeLocation(v) },
	},
	{
		name: "url",
		paths: [][]string{
			{"applyUrl"},
			{"applyMethod", decoOffsiteJobs, "companyApplyUrl"},
			{"data", "applyUrl"},
		},
		assign: func(p *domain.JobPosting, v string) { p.URL = strings.TrimSpace(v) },
	},
}

// APIResolver reads postings through the LinkedIn job API.
type APIResolver struct {
	api JobAPI
}

func NewAPIResolver(api JobAPI) *APIResolver {
	return &APIResolver{api: api}
}

// Resolve fetches the posting for url. Missing fields are "N/A", except the
// link, which falls back to url itself.
func (r *APIResolver) Resolve(ctx context.Context, url string) domain.JobPosting {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldComponent: "extract.api",
		logger.FieldURL:       url,
	})

	id, err := linkedin.ParseJobID(url)
	if err != nil {
		log.WithError(err).Warn("failed to fetch job")
		return domain.Unresolved(url)
	}

	job, err := r.api.GetJob(ctx, id)
	if err != nil {
		log.WithError(err).WithField(logger.FieldJobID, id).Warn("failed to fetch job")
		return domain.Unresolved(url)
	}

	return postingFromJob(job, url)
}

func postingFromJob(job map[string]any, url string) domain.JobPosting {
	p := domain.Unresolved(url)
	for _, f := range apiFields {
		for _, path := range f.paths {
			if v, ok := lookupString(job, path); ok {
				f.assign(&p, v)
				break
			}
		}
	}
	if p.Title == "" {
		p.Title = domain.NotFound
	}
	if p.Company == "" {
		p.Company = domain.NotFound
	}
	if p.Location == "" {
		p.Location = domain.NotFound
	}
	if p.URL == "" {
		p.URL = url
	}
	return p
}

func lookupString(m map[string]any, path []string) (string, bool) {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = obj[key]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
