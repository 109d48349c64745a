package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"jobtracker/internal/domain"
	"jobtracker/internal/intake"
)

type intaker interface {
	AddSingle(ctx context.Context, url, tag string) (bool, string)
	AddBulk(ctx context.Context, path, tag string) (int, error)
}

func newMenuCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu (the default when no command is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenuCmd(cmd, opts)
		},
	}
}

func runMenuCmd(cmd *cobra.Command, opts *rootOptions) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.pipeline(cmd.Context())
	if err != nil {
		return err
	}
	return runMenu(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), p)
}

// runMenu loops until the user exits, input ends or ctx is canceled.
func runMenu(ctx context.Context, in io.Reader, out io.Writer, p intaker) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	prompt := func(label string) (string, bool) {
		fmt.Fprint(out, label)
		select {
		case <-ctx.Done():
			return "", false
		case line, ok := <-lines:
			return line, ok
		}
	}

	fmt.Fprintln(out, "\nWelcome to LinkedIn Job Tracker!")
	fmt.Fprintln(out, "This tool helps you save LinkedIn jobs to your personal tracker.")
	for {
		fmt.Fprintln(out, "\n------------------------------")
		fmt.Fprintln(out, "What would you like to do?")
		fmt.Fprintln(out, "1. Add a single LinkedIn job link")
		fmt.Fprintln(out, "2. Import multiple jobs from a file")
		fmt.Fprintln(out, "3. Exit")
		choice, ok := prompt("Enter your choice (1, 2, or 3): ")
		if !ok {
			fmt.Fprintln(out)
			return ctx.Err()
		}

		switch choice {
		case "1":
			url, ok := prompt("Enter LinkedIn Job URL: ")
			if !ok {
				return ctx.Err()
			}
			_, msg := p.AddSingle(ctx, url, domain.SourceScript)
			fmt.Fprintln(out, msg)
		case "2":
			path, ok := prompt("Enter the path to the file containing job URLs: ")
			if !ok {
				return ctx.Err()
			}
			added, err := p.AddBulk(ctx, path, domain.SourceFileImport)
			if err != nil {
				fmt.Fprintln(out, bulkMessage(err))
				continue
			}
			fmt.Fprintf(out, "Imported %d jobs from the file.\n", added)
		case "3":
			fmt.Fprintln(out, "Thank you for using LinkedIn Job Tracker. Goodbye!")
			return nil
		default:
			fmt.Fprintln(out, "Please enter 1, 2, or 3.")
		}
	}
}

// bulkMessage renders an AddBulk error as a sentence for the terminal.
func bulkMessage(err error) string {
	switch {
	case errors.Is(err, intake.ErrNoFilePath):
		return "No file path entered."
	case errors.Is(err, intake.ErrFileNotFound):
		return "File not found."
	case errors.Is(err, intake.ErrNoURLs):
		return "No job URLs found in the file."
	}
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
