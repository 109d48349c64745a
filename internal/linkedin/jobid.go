package linkedin

import (
	"fmt"
	"regexp"
)

var reJobID = regexp.MustCompile(`/jobs/view/(\d+)`)

// ValidationError reports a URL that does not point at a job posting.
type ValidationError struct {
	URL string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid job URL: %q", e.URL)
}

// ParseJobID returns the numeric id in a /jobs/view/<id> URL.
func ParseJobID(rawURL string) (string, error) {
	m := reJobID.FindStringSubmatch(rawURL)
	if len(m) != 2 {
		return "", &ValidationError{URL: rawURL}
	}
	return m[1], nil
}

// CanonicalJobURL returns the public posting link for id.
func CanonicalJobURL(id string) string {
	return "https://www.linkedin.com/jobs/view/" + id + "/"
}
