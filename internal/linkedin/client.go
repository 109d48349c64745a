package linkedin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"jobtracker/internal/netutil"
)

const (
	DefaultBaseURL = "https://www.linkedin.com"

	voyagerPrefix   = "/voyager/api"
	jobDecorationID = "com.linkedin.voyager.deco.jobs.web.shared.WebLightJobPosting-23"
)

var ErrLoginFailed = errors.New("linkedin login failed")

// APIError is a non-2xx answer from the Voyager API.
type APIError struct {
	Path   string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("linkedin api %s: status %d", e.Path, e.Status)
}

type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Limiter   *netutil.HostLimiter
}

// Client talks to LinkedIn's Voyager API with a cookie-based session.
type Client struct {
	rc      *resty.Client
	base    *url.URL
	limiter *netutil.HostLimiter
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid linkedin base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	rc := resty.New().
		SetBaseURL(base.String()).
		SetCookieJar(jar).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{rc: rc, base: base, limiter: cfg.Limiter}, nil
}

// Login signs in with username and password. The session cookies end up in
// the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if err := c.limiter.WaitURL(ctx, c.base.String()); err != nil {
		return err
	}

	// first request only collects JSESSIONID
	resp, err := c.rc.R().SetContext(ctx).Get("/uas/authenticate")
	if err != nil {
		return fmt.Errorf("linkedin auth page: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("linkedin auth page: status %d", resp.StatusCode())
	}

	jsession := c.cookie("JSESSIONID")
	if jsession == "" {
		return fmt.Errorf("%w: no JSESSIONID cookie", ErrLoginFailed)
	}

	var result struct {
		LoginResult string `json:"login_result"`
	}
	resp, err = c.rc.R().
		SetContext(ctx).
		SetHeader("X-Li-User-Agent", "LIAuthLibrary:3.2.4 com.linkedin.LinkedIn:8.8.1 iPhone:8.3").
		SetHeader("X-User-Language", "en").
		SetFormData(map[string]string{
			"session_key":      username,
			"session_password": password,
			"JSESSIONID":       jsession,
		}).
		SetResult(&result).
		ForceContentType("application/json").
		Post("/uas/authenticate")
	if err != nil {
		return fmt.Errorf("linkedin login: %w", err)
	}
	if resp.IsError() || result.LoginResult != "PASS" {
		return fmt.Errorf("%w: status %d, result %q", ErrLoginFailed, resp.StatusCode(), result.LoginResult)
	}

	c.refreshCSRF()
	return nil
}

// GetProfile returns the profile view of publicID. "me" is the signed-in user
// and is used as a session check.
func (c *Client) GetProfile(ctx context.Context, publicID string) (map[string]any, error) {
	return c.voyager(ctx, "/identity/profiles/"+url.PathEscape(publicID)+"/profileView", nil)
}

// GetJob returns the raw job posting for id.
func (c *Client) GetJob(ctx context.Context, id string) (map[string]any, error) {
	return c.voyager(ctx, "/jobs/jobPostings/"+url.PathEscape(id), map[string]string{
		"decorationId": jobDecorationID,
	})
}

func (c *Client) voyager(ctx context.Context, path string, query map[string]string) (map[string]any, error) {
	if err := c.limiter.WaitURL(ctx, c.base.String()); err != nil {
		return nil, err
	}

	var out map[string]any
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Accept", "application/vnd.linkedin.normalized+json+2.1").
		SetHeader("X-RestLi-Protocol-Version", "2.0.0").
		SetQueryParams(query).
		SetResult(&out).
		ForceContentType("application/json").
		Get(voyagerPrefix + path)
	if err != nil {
		return nil, fmt.Errorf("linkedin api %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, &APIError{Path: path, Status: resp.StatusCode()}
	}
	if out == nil {
		return nil, fmt.Errorf("linkedin api %s: empty body", path)
	}
	return out, nil
}

// Cookies returns the session cookies for the LinkedIn host.
func (c *Client) Cookies() []*http.Cookie {
	return c.rc.GetClient().Jar.Cookies(c.base)
}

// WithCookies loads previously saved session cookies into the client.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	c.rc.GetClient().Jar.SetCookies(c.base, cookies)
	c.refreshCSRF()
	return c
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.Cookies() {
		if ck.Name == name {
			return strings.Trim(ck.Value, `"`)
		}
	}
	return ""
}

// Voyager wants the JSESSIONID value echoed back as csrf-token.
func (c *Client) refreshCSRF() {
	if v := c.cookie("JSESSIONID"); v != "" {
		c.rc.SetHeader("csrf-token", v)
	}
}
