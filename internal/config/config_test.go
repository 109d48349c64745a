package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"jobtracker/internal/secrets"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestNormalizeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad mode", func(c *Config) { c.Extractor.Mode = "scrape" }, "extractor.mode"},
		{"mode is case-insensitive", func(c *Config) { c.Extractor.Mode = " Markup " }, ""},
		{"zero timeout", func(c *Config) { c.Extractor.TimeoutSeconds = 0 }, "extractor.timeout_seconds"},
		{"no spreadsheet", func(c *Config) { c.Sheets.Spreadsheet = "  " }, "sheets.spreadsheet"},
		{"bad server addr", func(c *Config) { c.Server.Addr = "38471" }, "server.addr"},
		{"relative base url", func(c *Config) { c.LinkedIn.BaseURL = "linkedin.com" }, "linkedin.base_url"},
		{"mailbox without user", func(c *Config) { c.Mailbox.Enabled = true }, "mailbox.username"},
		{"negative poll interval", func(c *Config) { c.Mailbox.PollMinutes = -1 }, "mailbox.poll_minutes"},
		{"shell origin", func(c *Config) { c.Server.AllowedOrigins = []string{"tauri://localhost", "http://127.0.0.1:1420"} }, ""},
		{"wildcard origin", func(c *Config) { c.Server.AllowedOrigins = []string{"*"} }, "server.allowed_origins"},
		{"origin with path", func(c *Config) { c.Server.AllowedOrigins = []string{"https://app.example/ui"} }, "server.allowed_origins"},
		{"markup without selectors", func(c *Config) {
			c.Extractor.Mode = ModeMarkup
			c.Extractor.Selectors.Company = ""
		}, "extractor.selectors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			_, res := NormalizeAndValidate(cfg)
			if tt.wantErr == "" {
				if !res.OK() {
					t.Fatalf("unexpected errors: %v", res.Errors)
				}
				return
			}
			if res.OK() {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(strings.Join(res.Errors, "\n"), tt.wantErr) {
				t.Fatalf("errors %v do not mention %q", res.Errors, tt.wantErr)
			}
		})
	}
}

func TestNormalizeSubjects(t *testing.T) {
	cfg := Default()
	cfg.Mailbox.SearchSubjectAny = []string{" Job Alert", "job alert", "", "New jobs"}

	out, _ := NormalizeAndValidate(cfg)
	got := strings.Join(out.Mailbox.SearchSubjectAny, "|")
	if got != "Job Alert|New jobs" {
		t.Fatalf("subjects = %q", got)
	}
}

func TestEnsureUserConfigAndLoad(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir)
	if err != nil {
		t.Fatalf("EnsureUserConfig: %v", err)
	}
	if path != filepath.Join(dir, "config.yml") {
		t.Fatalf("path = %q", path)
	}

	cfg, err := Load(dir, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sheets.Worksheet != "Automated Jobs" || cfg.Server.Addr != "127.0.0.1:38471" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	// second call keeps the existing file
	cfg.Sheets.Worksheet = "Mine"
	if err := SaveAtomic(path, cfg); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}
	if _, err := EnsureUserConfig(dir); err != nil {
		t.Fatalf("EnsureUserConfig: %v", err)
	}
	cfg, err = Load(dir, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sheets.Worksheet != "Mine" {
		t.Fatalf("worksheet = %q", cfg.Sheets.Worksheet)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Extractor.Mode != ModeAPI {
		t.Fatalf("mode = %q", cfg.Extractor.Mode)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("JOBTRACKER_SHEETS_SPREADSHEET", "From Env")
	t.Setenv("LINKEDIN_USERNAME", "me@example.com")

	cfg, err := Load("", filepath.Join(t.TempDir(), "config.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sheets.Spreadsheet != "From Env" {
		t.Fatalf("spreadsheet = %q", cfg.Sheets.Spreadsheet)
	}
	if cfg.LinkedIn.Username != "me@example.com" {
		t.Fatalf("username = %q", cfg.LinkedIn.Username)
	}
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadReadsDataDirEnvFile(t *testing.T) {
	keyring.MockInit()
	unsetEnv(t, secrets.EnvLinkedInUsername, secrets.EnvLinkedInPassword, "JOBTRACKER_SHEETS_WORKSHEET")

	if _, err := secrets.LinkedInCredentials(""); !errors.Is(err, secrets.ErrMissingCredentials) {
		t.Fatalf("precondition: err = %v", err)
	}

	dir := t.TempDir()
	err := secrets.SaveEnvFile(filepath.Join(dir, ".env"), secrets.LinkedIn{Username: "me@example.com", Password: "from-file"})
	if err != nil {
		t.Fatalf("SaveEnvFile: %v", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, ".env"), os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("JOBTRACKER_SHEETS_WORKSHEET=\"From File\"\n")
	_ = f.Close()

	cfg, err := Load(dir, filepath.Join(dir, "config.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sheets.Worksheet != "From File" {
		t.Fatalf("worksheet = %q", cfg.Sheets.Worksheet)
	}
	if cfg.LinkedIn.Username != "me@example.com" {
		t.Fatalf("username = %q", cfg.LinkedIn.Username)
	}

	creds, err := secrets.LinkedInCredentials("")
	if err != nil {
		t.Fatalf("LinkedInCredentials: %v", err)
	}
	if creds.Username != "me@example.com" || creds.Password != "from-file" {
		t.Fatalf("creds = %+v", creds)
	}
}

func TestLoadEnvKeepsExistingVariables(t *testing.T) {
	unsetEnv(t, secrets.EnvLinkedInUsername)
	t.Setenv(secrets.EnvLinkedInPassword, "from-env")

	dir := t.TempDir()
	err := secrets.SaveEnvFile(filepath.Join(dir, ".env"), secrets.LinkedIn{Username: "me@example.com", Password: "from-file"})
	if err != nil {
		t.Fatalf("SaveEnvFile: %v", err)
	}
	if err := LoadEnv(dir); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv(secrets.EnvLinkedInPassword); got != "from-env" {
		t.Fatalf("password = %q", got)
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("/data", "creds/x.json"); got != filepath.Join("/data", "creds/x.json") {
		t.Fatalf("got %q", got)
	}
	if got := Resolve("/data", "/abs/x.json"); got != "/abs/x.json" {
		t.Fatalf("got %q", got)
	}
	if got := Resolve("/data", ""); got != "" {
		t.Fatalf("got %q", got)
	}
}
