package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"jobtracker/internal/config"
	"jobtracker/internal/extract"
	"jobtracker/internal/intake"
	"jobtracker/internal/linkedin"
	"jobtracker/internal/logger"
	"jobtracker/internal/netutil"
	"jobtracker/internal/secrets"
	"jobtracker/internal/sheets"
	"jobtracker/internal/source/mailbox"
	"jobtracker/internal/store"
)

// app holds what every command needs once config is loaded. Clients are
// built on demand so commands like history never touch the network.
type app struct {
	dataDir string
	cfgPath string
	cfg     config.Config
	log     *logger.Logger
	limiter *netutil.HostLimiter
	journal *store.DB
}

func newApp(opts *rootOptions) (*app, error) {
	if err := os.MkdirAll(opts.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(opts.dataDir)
		if err != nil {
			return nil, fmt.Errorf("config bootstrap failed: %w", err)
		}
		cfgPath = p
	}
	cfg, err := config.Load(opts.dataDir, cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", cfgPath, err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	lc := logger.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	lc.File = config.Resolve(opts.dataDir, cfg.Log.File)
	log := logger.New(lc)
	logger.SetDefaultLogger(log)

	return &app{
		dataDir: opts.dataDir,
		cfgPath: cfgPath,
		cfg:     cfg,
		log:     log,
		limiter: netutil.NewHostLimiter(cfg.Extractor.RequestsPerSecond, 1),
	}, nil
}

func (a *app) path(p string) string { return config.Resolve(a.dataDir, p) }

func (a *app) timeout() time.Duration {
	return time.Duration(a.cfg.Extractor.TimeoutSeconds) * time.Second
}

// openJournal returns nil, nil when the journal is disabled.
func (a *app) openJournal() (*store.DB, error) {
	if a.journal != nil || a.cfg.Journal.Path == "" {
		return a.journal, nil
	}
	db, err := store.Open(a.path(a.cfg.Journal.Path))
	if err != nil {
		return nil, err
	}
	a.journal = db
	return db, nil
}

// resolver builds the configured extractor. In api mode this signs in to
// LinkedIn, reusing the saved session when it is still accepted.
func (a *app) resolver(ctx context.Context) (extract.Resolver, error) {
	ec := a.cfg.Extractor
	cfg := extract.Config{
		Mode:      ec.Mode,
		UserAgent: ec.UserAgent,
		Timeout:   a.timeout(),
		Selectors: extract.Selectors(ec.Selectors),
		Limiter:   a.limiter,
	}
	if ec.Mode != config.ModeAPI {
		return extract.New(cfg, nil)
	}

	creds, err := secrets.LinkedInCredentials(a.cfg.LinkedIn.Username)
	if err != nil {
		return nil, err
	}
	client, err := linkedin.NewClient(linkedin.ClientConfig{
		BaseURL:   a.cfg.LinkedIn.BaseURL,
		UserAgent: ec.UserAgent,
		Timeout:   a.timeout(),
		Limiter:   a.limiter,
	})
	if err != nil {
		return nil, err
	}
	sessions := linkedin.NewSessionStore(a.path(a.cfg.LinkedIn.SessionFile))
	client, err = linkedin.Connect(ctx, client, sessions, creds.Username, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("linkedin sign-in: %w", err)
	}
	return extract.New(cfg, client)
}

func (a *app) pipeline(ctx context.Context, opts ...intake.Option) (*intake.Pipeline, error) {
	res, err := a.resolver(ctx)
	if err != nil {
		return nil, err
	}

	opener := sheets.NewGoogleOpener(sheets.GoogleConfig{
		CredentialsFile: a.path(a.cfg.Sheets.CredentialsFile),
	})
	appender := sheets.NewAppender(opener, a.cfg.Sheets.Spreadsheet, a.cfg.Sheets.Worksheet)

	j, err := a.openJournal()
	if err != nil {
		return nil, err
	}
	if j != nil {
		opts = append([]intake.Option{intake.WithJournal(j)}, opts...)
	}
	return intake.New(res, appender, opts...), nil
}

func (a *app) mailboxImporter(adder mailbox.URLAdder) (*mailbox.Importer, error) {
	mc := a.cfg.Mailbox
	password, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(mc.Username, mc.IMAPHost))
	if err != nil {
		return nil, err
	}
	imapCfg := mailbox.IMAPConfig{
		Host:     mc.IMAPHost,
		Port:     mc.IMAPPort,
		Username: mc.Username,
		Password: password,
		Mailbox:  mc.Mailbox,
	}
	open := func(ctx context.Context) (mailbox.Mailbox, error) {
		mb, err := mailbox.DialIMAP(ctx, imapCfg)
		if err != nil {
			return nil, err
		}
		return mb, nil
	}
	return mailbox.NewImporter(open, adder, mailbox.Options{
		SubjectAny:  mc.SearchSubjectAny,
		MaxMessages: mc.MaxMessages,
		MarkSeen:    mc.MarkSeen,
	}), nil
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.WithError(err).Warn("close journal")
		}
	}
	_ = logger.Sync()
}
