package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"jobtracker/internal/domain"
	"jobtracker/internal/events"
	"jobtracker/internal/httpapi"
	"jobtracker/internal/intake"
	"jobtracker/internal/logger"
	"jobtracker/internal/scheduler"
	"jobtracker/internal/source/mailbox"
)

const envShutdownToken = "JOBTRACKER_SHUTDOWN_TOKEN"

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local engine for the desktop app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			hub := events.NewHub()
			p, err := a.pipeline(ctx, intake.WithNotify(jobAddedNotifier(hub)))
			if err != nil {
				return err
			}

			var intakeMu sync.Mutex
			deps := httpapi.Deps{
				Intake:         p,
				Hub:            hub,
				Log:            a.log,
				IntakeLock:     &intakeMu,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				ShutdownToken:  os.Getenv(envShutdownToken),
				Shutdown:       cancel,
			}
			if j, _ := a.openJournal(); j != nil {
				deps.History = j
			}

			var background []func(context.Context) error
			if a.cfg.Mailbox.Enabled {
				im, err := a.mailboxImporter(p)
				if err != nil {
					a.log.WithError(err).Warn("mailbox import unavailable")
				} else {
					tm := &trackedMailbox{im: im, tracker: &scheduler.Tracker{}}
					deps.Mailbox = tm
					deps.MailboxStatus = tm.tracker.Status
					if every := a.cfg.Mailbox.PollMinutes; every > 0 {
						background = append(background, func(ctx context.Context) error {
							scheduler.Every(ctx, time.Duration(every)*time.Minute, "mailbox", func(ctx context.Context) error {
								intakeMu.Lock()
								defer intakeMu.Unlock()
								res, err := tm.Run(ctx)
								fin := events.ImportFinished{Added: res.Added}
								if err != nil {
									fin.Error = err.Error()
								}
								hub.Emit("", events.TypeMailboxFinished, fin)
								return err
							})
							return nil
						})
					}
				}
			}

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Handler:           httpapi.NewRouter(deps),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return serve(ctx, srv, addr, hub, a.log, background...)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr from config)")
	return cmd
}

// serve runs srv and the background tasks until ctx is done, then closes
// open event streams and shuts the server down.
func serve(ctx context.Context, srv *http.Server, addr string, hub *events.Hub, log *logger.Logger, background ...func(context.Context) error) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range background {
		g.Go(func() error { return task(gctx) })
	}
	g.Go(func() error {
		log.WithField("addr", ln.Addr().String()).Info("engine listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("engine shutting down")
		hub.Close()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// trackedMailbox records every mailbox run, manual or scheduled, for the
// status endpoint.
type trackedMailbox struct {
	im      *mailbox.Importer
	tracker *scheduler.Tracker
}

func (m *trackedMailbox) Run(ctx context.Context) (mailbox.Result, error) {
	var res mailbox.Result
	_, err := m.tracker.Run(ctx, func(ctx context.Context) (int, error) {
		var err error
		res, err = m.im.Run(ctx)
		return res.Added, err
	})
	return res, err
}

func jobAddedNotifier(hub *events.Hub) func(context.Context, domain.TrackerRow) {
	return func(ctx context.Context, row domain.TrackerRow) {
		hub.Emit(logger.GetRequestID(ctx), events.TypeJobAdded, events.JobAdded{
			Title:    row.Title,
			Company:  row.Company,
			Location: row.Location,
			URL:      row.URL,
			Date:     row.DateAdded.Format(domain.DateLayout),
			Source:   row.Source,
		})
	}
}
