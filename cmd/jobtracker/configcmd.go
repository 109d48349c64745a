package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jobtracker/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file, .env and environment merged)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", a.cfgPath, b)
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and list problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				p, err := config.EnsureUserConfig(opts.dataDir)
				if err != nil {
					return err
				}
				path = p
			}
			cfg, err := config.Load(opts.dataDir, path)
			if err != nil {
				return err
			}

			_, v := config.NormalizeAndValidate(cfg)
			out := cmd.OutOrStdout()
			for _, w := range v.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			for _, e := range v.Errors {
				fmt.Fprintf(out, "error: %s\n", e)
			}
			if !v.OK() {
				return fmt.Errorf("%s has %d error(s)", path, len(v.Errors))
			}
			fmt.Fprintf(out, "%s is valid.\n", path)
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := opts.configPath
			if p == "" {
				var err error
				if p, err = config.EnsureUserConfig(opts.dataDir); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(show, validate, path)
	return cmd
}
