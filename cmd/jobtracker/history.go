package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"jobtracker/internal/store"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit     int
		skipped   bool
		outcome   string
		batch     string
		pruneDays int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent intake attempts from the local journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			db, err := a.openJournal()
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("the intake journal is disabled (journal.path is empty)")
			}

			if pruneDays > 0 {
				n, err := db.Prune(cmd.Context(), time.Now().AddDate(0, 0, -pruneDays))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %d days.\n", n, pruneDays)
				return nil
			}

			lo := store.ListOpts{Outcome: store.Outcome(outcome), BatchID: batch, Limit: limit}
			if skipped {
				lo.Outcome = store.OutcomeUnresolved
			}
			if lo.Outcome != "" && !lo.Outcome.Valid() {
				return fmt.Errorf("unknown outcome %q (want added, unresolved or failed)", outcome)
			}
			entries, err := db.List(cmd.Context(), lo)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), entries)
		},
	}
	f := cmd.Flags()
	f.IntVar(&limit, "limit", 20, "number of entries to show")
	f.BoolVar(&skipped, "skipped", false, "only postings that could not be resolved")
	f.StringVar(&outcome, "outcome", "", "filter by outcome: added, unresolved or failed")
	f.StringVar(&batch, "batch", "", "filter by import batch id")
	f.IntVar(&pruneDays, "prune-days", 0, "delete entries older than this many days and exit")
	return cmd
}

func printHistory(out io.Writer, entries []store.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No intake history yet.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tOUTCOME\tTITLE\tCOMPANY\tSOURCE\tURL")
	for _, e := range entries {
		title := e.Title
		if e.Outcome == store.OutcomeFailed && e.Detail != "" {
			title = e.Detail
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Outcome,
			dash(title), dash(e.Company), dash(e.Source), e.URL)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
