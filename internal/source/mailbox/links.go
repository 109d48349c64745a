package mailbox

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobtracker/internal/linkedin"
)

var reURL = regexp.MustCompile(`https?://[^\s<>"']+`)

// ExtractJobLinks returns the canonical LinkedIn posting links found in an
// alert email, in order of appearance and without duplicates.
func ExtractJobLinks(htmlBody, plain string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(raw string) {
		u := canonicalJobURL(raw)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}

	if strings.TrimSpace(htmlBody) != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody)); err == nil {
			doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				add(strings.TrimSpace(href))
			})
		}
	}

	for _, u := range reURL.FindAllString(plain, -1) {
		add(strings.TrimRight(u, ".,);:]\"'"))
	}
	return out
}

// canonicalJobURL maps any LinkedIn posting link, including tracking and
// redirect wrappers, to https://www.linkedin.com/jobs/view/<id>/.
func canonicalJobURL(href string) string {
	href = normalizeMaybeRedirectedURL(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return ""
	}
	id, err := linkedin.ParseJobID(u.Path)
	if err != nil {
		return ""
	}
	return linkedin.CanonicalJobURL(id)
}

// normalizeMaybeRedirectedURL unwraps google and safelinks redirects.
func normalizeMaybeRedirectedURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Host)
	switch {
	case strings.Contains(host, "google.") && strings.HasPrefix(u.Path, "/url"):
		if q := u.Query().Get("q"); q != "" {
			return q
		}
	case strings.HasSuffix(host, "safelinks.protection.outlook.com"):
		if q := u.Query().Get("url"); q != "" {
			return q
		}
	}

	if u.Host == "" {
		return ""
	}
	return u.String()
}

func containsAnyCI(s string, terms []string) bool {
	low := strings.ToLower(s)
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && strings.Contains(low, t) {
			return true
		}
	}
	return false
}
