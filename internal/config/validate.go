package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg together with the
// problems found in it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.LinkedIn.Username = strings.TrimSpace(out.LinkedIn.Username)
	out.Extractor.Mode = strings.ToLower(strings.TrimSpace(out.Extractor.Mode))
	out.Sheets.Spreadsheet = strings.TrimSpace(out.Sheets.Spreadsheet)
	out.Sheets.Worksheet = strings.TrimSpace(out.Sheets.Worksheet)
	out.Mailbox.SearchSubjectAny = trimList(out.Mailbox.SearchSubjectAny)
	out.Server.AllowedOrigins = trimList(out.Server.AllowedOrigins)

	// extractor
	switch out.Extractor.Mode {
	case ModeAPI, ModeMarkup:
	default:
		res.addErr("extractor.mode must be %q or %q, got %q", ModeAPI, ModeMarkup, out.Extractor.Mode)
	}
	if out.Extractor.TimeoutSeconds <= 0 {
		res.addErr("extractor.timeout_seconds must be > 0")
	}
	if out.Extractor.RequestsPerSecond <= 0 {
		res.addErr("extractor.requests_per_second must be > 0")
	} else if out.Extractor.RequestsPerSecond > 5 {
		res.addWarn("extractor.requests_per_second is high (%.1f) and may get the account throttled.", out.Extractor.RequestsPerSecond)
	}
	if out.Extractor.Mode == ModeMarkup {
		sel := out.Extractor.Selectors
		if sel.Title == "" || sel.Company == "" || sel.Location == "" {
			res.addErr("extractor.selectors.title, company and location are required in markup mode")
		}
	}

	// linkedin
	if u, err := url.Parse(out.LinkedIn.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		res.addErr("linkedin.base_url must be an absolute URL")
	}
	if out.LinkedIn.SessionFile == "" {
		res.addErr("linkedin.session_file is required")
	}

	// sheets
	if strings.TrimSpace(out.Sheets.CredentialsFile) == "" {
		res.addErr("sheets.credentials_file is required")
	}
	if out.Sheets.Spreadsheet == "" {
		res.addErr("sheets.spreadsheet is required")
	}
	if out.Sheets.Worksheet == "" {
		res.addWarn("sheets.worksheet is empty; rows will go to the first tab.")
	}

	// server
	if _, _, err := net.SplitHostPort(out.Server.Addr); err != nil {
		res.addErr("server.addr must be host:port, got %q", out.Server.Addr)
	}
	for _, o := range out.Server.AllowedOrigins {
		if !validOrigin(o) {
			res.addErr("server.allowed_origins entry %q must be scheme://host[:port] with no path", o)
		}
	}

	// mailbox required fields if enabled (password lives in the keychain)
	if out.Mailbox.Enabled {
		if strings.TrimSpace(out.Mailbox.IMAPHost) == "" {
			res.addErr("mailbox.imap_host is required when mailbox.enabled=true")
		}
		if out.Mailbox.IMAPPort <= 0 || out.Mailbox.IMAPPort > 65535 {
			res.addErr("mailbox.imap_port must be 1..65535 when mailbox.enabled=true")
		}
		if strings.TrimSpace(out.Mailbox.Username) == "" {
			res.addErr("mailbox.username is required when mailbox.enabled=true")
		}
		if strings.TrimSpace(out.Mailbox.Mailbox) == "" {
			res.addErr("mailbox.mailbox is required when mailbox.enabled=true")
		}
		if len(out.Mailbox.SearchSubjectAny) == 0 {
			res.addWarn("mailbox.search_subject_any is empty; every unseen message will be scanned.")
		}
	}
	if out.Mailbox.MaxMessages < 0 {
		res.addErr("mailbox.max_messages must be >= 0")
	}
	if out.Mailbox.PollMinutes < 0 {
		res.addErr("mailbox.poll_minutes must be >= 0")
	} else if out.Mailbox.PollMinutes > 0 && out.Mailbox.PollMinutes < 5 {
		res.addWarn("mailbox.poll_minutes below 5 checks the inbox very often.")
	}

	switch strings.ToLower(out.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		res.addWarn("log.level %q is unknown; info will be used.", out.Log.Level)
	}

	return out, res
}

// validOrigin reports whether o has the shape of a browser Origin header.
func validOrigin(o string) bool {
	u, err := url.Parse(o)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	return u.Path == "" && u.RawQuery == "" && u.Fragment == "" && u.User == nil
}
