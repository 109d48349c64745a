// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Extractor modes.
const (
	ModeAPI    = "api"
	ModeMarkup = "markup"
)

type Selectors struct {
	Title    string `yaml:"title" mapstructure:"title"`
	Company  string `yaml:"company" mapstructure:"company"`
	Location string `yaml:"location" mapstructure:"location"`
}

type Config struct {
	LinkedIn struct {
		Username    string `yaml:"username" mapstructure:"username"`
		SessionFile string `yaml:"session_file" mapstructure:"session_file"`
		BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	} `yaml:"linkedin" mapstructure:"linkedin"`

	Extractor struct {
		Mode              string    `yaml:"mode" mapstructure:"mode"`
		UserAgent         string    `yaml:"user_agent" mapstructure:"user_agent"`
		TimeoutSeconds    int       `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
		RequestsPerSecond float64   `yaml:"requests_per_second" mapstructure:"requests_per_second"`
		Selectors         Selectors `yaml:"selectors" mapstructure:"selectors"`
	} `yaml:"extractor" mapstructure:"extractor"`

	Sheets struct {
		CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
		Spreadsheet     string `yaml:"spreadsheet" mapstructure:"spreadsheet"`
		Worksheet       string `yaml:"worksheet" mapstructure:"worksheet"`
	} `yaml:"sheets" mapstructure:"sheets"`

	Journal struct {
		Path string `yaml:"path" mapstructure:"path"`
	} `yaml:"journal" mapstructure:"journal"`

	Server struct {
		Addr string `yaml:"addr" mapstructure:"addr"`
		// Origins of the desktop shell allowed to call the engine from a
		// browser context. Requests carrying any other Origin are refused.
		AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	} `yaml:"server" mapstructure:"server"`

	Mailbox struct {
		Enabled          bool     `yaml:"enabled" mapstructure:"enabled"`
		IMAPHost         string   `yaml:"imap_host" mapstructure:"imap_host"`
		IMAPPort         int      `yaml:"imap_port" mapstructure:"imap_port"`
		Username         string   `yaml:"username" mapstructure:"username"`
		Mailbox          string   `yaml:"mailbox" mapstructure:"mailbox"`
		SearchSubjectAny []string `yaml:"search_subject_any" mapstructure:"search_subject_any"`
		MaxMessages      int      `yaml:"max_messages" mapstructure:"max_messages"`
		MarkSeen         bool     `yaml:"mark_seen" mapstructure:"mark_seen"`
		PollMinutes      int      `yaml:"poll_minutes" mapstructure:"poll_minutes"` // serve only; 0 = off
	} `yaml:"mailbox" mapstructure:"mailbox"`

	Log struct {
		Level  string `yaml:"level" mapstructure:"level"`
		Format string `yaml:"format" mapstructure:"format"`
		File   string `yaml:"file" mapstructure:"file"`
	} `yaml:"log" mapstructure:"log"`
}

// Default returns the configuration written on first run.
func Default() Config {
	var cfg Config

	cfg.LinkedIn.SessionFile = "creds/linkedin_session.json"
	cfg.LinkedIn.BaseURL = "https://www.linkedin.com"

	cfg.Extractor.Mode = ModeAPI
	cfg.Extractor.UserAgent = "Mozilla/5.0"
	cfg.Extractor.TimeoutSeconds = 20
	cfg.Extractor.RequestsPerSecond = 1
	cfg.Extractor.Selectors = Selectors{
		Title:    "h1",
		Company:  "a.topcard__org-name-link",
		Location: "span.topcard__flavor.topcard__flavor--bullet",
	}

	cfg.Sheets.CredentialsFile = "creds/sa-credentials.json"
	cfg.Sheets.Spreadsheet = "LinkedIn Job Tracker"
	cfg.Sheets.Worksheet = "Automated Jobs"

	cfg.Journal.Path = "jobtracker.db"
	cfg.Server.Addr = "127.0.0.1:38471"

	cfg.Mailbox.IMAPHost = "imap.gmail.com"
	cfg.Mailbox.IMAPPort = 993
	cfg.Mailbox.Mailbox = "INBOX"
	cfg.Mailbox.SearchSubjectAny = []string{"job alert", "jobs for you"}
	cfg.Mailbox.MaxMessages = 50
	cfg.Mailbox.MarkSeen = true

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads path (YAML), applies defaults and environment overrides.
// dataDir/.env is loaded first, then ./.env, so LINKEDIN_* and
// JOBTRACKER_* variables can live there. Variables already set in the
// environment win over both files.
func Load(dataDir, path string) (Config, error) {
	if err := LoadEnv(dataDir); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("JOBTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	_ = v.BindEnv("linkedin.username", "JOBTRACKER_LINKEDIN_USERNAME", "LINKEDIN_USERNAME")
	_ = v.BindEnv("mailbox.username", "JOBTRACKER_MAILBOX_USERNAME", "IMAP_USERNAME")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv exports the variables of dataDir/.env and ./.env that are not
// already set. Missing files are skipped.
func LoadEnv(dataDir string) error {
	files := []string{".env"}
	if dataDir != "" {
		if p := filepath.Join(dataDir, ".env"); filepath.Clean(p) != ".env" {
			files = append([]string{p}, files...)
		}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("linkedin.username", d.LinkedIn.Username)
	v.SetDefault("linkedin.session_file", d.LinkedIn.SessionFile)
	v.SetDefault("linkedin.base_url", d.LinkedIn.BaseURL)

	v.SetDefault("extractor.mode", d.Extractor.Mode)
	v.SetDefault("extractor.user_agent", d.Extractor.UserAgent)
	v.SetDefault("extractor.timeout_seconds", d.Extractor.TimeoutSeconds)
	v.SetDefault("extractor.requests_per_second", d.Extractor.RequestsPerSecond)
	v.SetDefault("extractor.selectors.title", d.Extractor.Selectors.Title)
	v.SetDefault("extractor.selectors.company", d.Extractor.Selectors.Company)
	v.SetDefault("extractor.selectors.location", d.Extractor.Selectors.Location)

	v.SetDefault("sheets.credentials_file", d.Sheets.CredentialsFile)
	v.SetDefault("sheets.spreadsheet", d.Sheets.Spreadsheet)
	v.SetDefault("sheets.worksheet", d.Sheets.Worksheet)

	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("mailbox.enabled", d.Mailbox.Enabled)
	v.SetDefault("mailbox.imap_host", d.Mailbox.IMAPHost)
	v.SetDefault("mailbox.imap_port", d.Mailbox.IMAPPort)
	v.SetDefault("mailbox.username", d.Mailbox.Username)
	v.SetDefault("mailbox.mailbox", d.Mailbox.Mailbox)
	v.SetDefault("mailbox.search_subject_any", d.Mailbox.SearchSubjectAny)
	v.SetDefault("mailbox.max_messages", d.Mailbox.MaxMessages)
	v.SetDefault("mailbox.mark_seen", d.Mailbox.MarkSeen)
	v.SetDefault("mailbox.poll_minutes", d.Mailbox.PollMinutes)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
}
