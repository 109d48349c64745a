package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	dataDir    string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "jobtracker",
		Short:         "Save LinkedIn job postings to your Google Sheets tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenuCmd(cmd, opts)
		},
	}

	dataDir := os.Getenv("JOBTRACKER_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.dataDir, "data-dir", dataDir, "directory holding config.yml, credentials and the journal (env JOBTRACKER_DATA_DIR)")
	pf.StringVar(&opts.configPath, "config", "", "config file (default <data-dir>/config.yml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newMenuCmd(opts),
		newAddCmd(opts),
		newImportCmd(opts),
		newMailCmd(opts),
		newHistoryCmd(opts),
		newCredsCmd(opts),
		newConfigCmd(opts),
		newServeCmd(opts),
	)
	return root
}
