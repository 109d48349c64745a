package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jobtracker/internal/domain"
	"jobtracker/internal/intake"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Add a single LinkedIn job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			ok, msg := p.AddSingle(cmd.Context(), args[0], domain.SourceScript)
			if !ok {
				return errors.New(msg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import job URLs from a .csv (first column) or text file (one per line)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// A bad path is reported before any login or sheet access.
			path, err := intake.CheckFile(args[0])
			if err != nil {
				return errors.New(bulkMessage(err))
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			added, err := p.AddBulk(cmd.Context(), path, domain.SourceFileImport)
			if err != nil {
				return errors.New(bulkMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d jobs from the file.\n", added)
			return nil
		},
	}
}

func newMailCmd(opts *rootOptions) *cobra.Command {
	var (
		maxMessages int
		noMarkSeen  bool
	)
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Import postings from unread LinkedIn job alert emails",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.cfg.Mailbox.Enabled {
				return errors.New("mailbox import is disabled (set mailbox.enabled in config.yml)")
			}
			if cmd.Flags().Changed("max") {
				a.cfg.Mailbox.MaxMessages = maxMessages
			}
			if noMarkSeen {
				a.cfg.Mailbox.MarkSeen = false
			}

			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			im, err := a.mailboxImporter(p)
			if err != nil {
				return err
			}
			res, err := im.Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Checked %d messages, %d job alerts, %d links. Imported %d jobs.\n",
				res.Messages, res.Matched, res.Links, res.Added)
			return err
		},
	}
	cmd.Flags().IntVar(&maxMessages, "max", 0, "max messages to read (0 = no limit, default from config)")
	cmd.Flags().BoolVar(&noMarkSeen, "no-mark-seen", false, "leave alert emails unread")
	return cmd
}
