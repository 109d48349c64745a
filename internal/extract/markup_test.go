package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobtracker/internal/domain"
)

func TestMarkupResolver(t *testing.T) {
	var gotUA string
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/view/1", func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<html><body>
			<h1>Backend Engineer</h1>
			<a class="topcard__org-name-link" href="/company/acme">
				Acme
			</a>
		</body></html>`))
	})
	mux.HandleFunc("/jobs/view/2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<h1>SRE</h1><h1>Second</h1>
			<a class="topcard__org-name-link">Globex</a>
			<span class="topcard__flavor topcard__flavor--bullet"> Austin,  TX </span>`))
	})
	mux.HandleFunc("/jobs/view/3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p>sign in to see this job</p>`))
	})
	mux.HandleFunc("/jobs/view/4", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewMarkupResolver(Config{UserAgent: "Mozilla/5.0 (test)", Timeout: 5 * time.Second})
	ctx := context.Background()

	tests := []struct {
		name string
		path string
		want func(url string) domain.JobPosting
	}{
		{"title and company only", "/jobs/view/1", func(u string) domain.JobPosting {
			return domain.JobPosting{Title: "Backend Engineer", Company: "Acme", Location: "N/A", URL: u}
		}},
		{"first heading wins", "/jobs/view/2", func(u string) domain.JobPosting {
			return domain.JobPosting{Title: "SRE", Company: "Globex", Location: "Austin, TX", URL: u}
		}},
		{"no elements", "/jobs/view/3", domain.Unresolved},
		{"non-success status", "/jobs/view/4", domain.Unresolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := srv.URL + tt.path
			got := r.Resolve(ctx, url)
			if want := tt.want(url); got != want {
				t.Fatalf("got %+v, want %+v", got, want)
			}
		})
	}

	if gotUA != "Mozilla/5.0 (test)" {
		t.Fatalf("User-Agent = %q", gotUA)
	}
}

func TestMarkupResolverTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/jobs/view/1"
	srv.Close()

	got := NewMarkupResolver(Config{Timeout: time.Second}).Resolve(context.Background(), url)
	if got != domain.Unresolved(url) {
		t.Fatalf("got %+v", got)
	}
}

func TestMarkupResolverCustomSelectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<h2 class="t">Platform Engineer</h2><div id="co">Initech</div><div id="loc">Remote</div>`))
	}))
	defer srv.Close()

	r := NewMarkupResolver(Config{Selectors: Selectors{Title: "h2.t", Company: "#co", Location: "#loc"}})
	got := r.Resolve(context.Background(), srv.URL)
	want := domain.JobPosting{Title: "Platform Engineer", Company: "Initech", Location: "Remote", URL: srv.URL}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
