package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"jobtracker/internal/linkedin"
	"jobtracker/internal/secrets"
)

func newCredsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Manage LinkedIn and IMAP credentials",
	}
	cmd.AddCommand(newCredsSetCmd(opts), newCredsClearCmd(opts))
	return cmd
}

func newCredsSetCmd(opts *rootOptions) *cobra.Command {
	var (
		username string
		envFile  string
		imap     bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a password in the OS keychain (or a .env file with --env-file)",
		Long: "Reads the password from stdin, without echo on a terminal. LinkedIn passwords\n" +
			"go to the keychain unless --env-file is given; --imap stores the mailbox\n" +
			"password instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			stdin := cmd.InOrStdin()
			in := bufio.NewReader(stdin)
			out := cmd.OutOrStdout()

			if imap {
				mc := a.cfg.Mailbox
				if username != "" {
					mc.Username = username
				}
				if mc.Username == "" {
					return errors.New("no IMAP username (set mailbox.username or pass --username)")
				}
				pw, err := readSecret(in, stdin, out, "IMAP password: ")
				if err != nil {
					return err
				}
				if err := secrets.SetIMAPPassword(secrets.IMAPKeyringAccount(mc.Username, mc.IMAPHost), pw); err != nil {
					return fmt.Errorf("save to keychain: %w", err)
				}
				fmt.Fprintln(out, "IMAP password saved to the keychain.")
				return nil
			}

			if username == "" {
				username = a.cfg.LinkedIn.Username
			}
			if username == "" {
				if username, err = readLine(in, out, "LinkedIn email: "); err != nil {
					return err
				}
			}
			pw, err := readSecret(in, stdin, out, "LinkedIn password: ")
			if err != nil {
				return err
			}

			if envFile != "" {
				path := a.path(envFile)
				if err := secrets.SaveEnvFile(path, secrets.LinkedIn{Username: username, Password: pw}); err != nil {
					return err
				}
				fmt.Fprintf(out, "Credentials saved to %s.\n", path)
				return nil
			}
			if err := secrets.SetLinkedInPassword(username, pw); err != nil {
				return fmt.Errorf("save to keychain (try --env-file .env): %w", err)
			}
			fmt.Fprintln(out, "LinkedIn password saved to the keychain.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&username, "username", "", "account name (default from config)")
	f.StringVar(&envFile, "env-file", "", "write LINKEDIN_USERNAME/LINKEDIN_PASSWORD to this dotenv file instead of the keychain")
	f.BoolVar(&imap, "imap", false, "store the mailbox password instead of the LinkedIn one")
	return cmd
}

func newCredsClearCmd(opts *rootOptions) *cobra.Command {
	var (
		username string
		imap     bool
	)
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove a stored password and the saved LinkedIn session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			if imap {
				mc := a.cfg.Mailbox
				if username != "" {
					mc.Username = username
				}
				err := secrets.DeleteIMAPPassword(secrets.IMAPKeyringAccount(mc.Username, mc.IMAPHost))
				if err != nil && !errors.Is(err, keyring.ErrNotFound) {
					return err
				}
				fmt.Fprintln(out, "IMAP password removed.")
				return nil
			}

			if username == "" {
				username = a.cfg.LinkedIn.Username
			}
			if username != "" {
				err := secrets.DeleteLinkedInPassword(username)
				if err != nil && !errors.Is(err, keyring.ErrNotFound) {
					return err
				}
			}
			if err := linkedin.NewSessionStore(a.path(a.cfg.LinkedIn.SessionFile)).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(out, "LinkedIn password and saved session removed.")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account name (default from config)")
	cmd.Flags().BoolVar(&imap, "imap", false, "remove the mailbox password instead")
	return cmd
}

func readLine(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	if line == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.TrimSuffix(label, ": "))
	}
	return line, nil
}

// readSecret reads a password without echo when stdin is a terminal and
// falls back to readLine for pipes and files.
func readSecret(in *bufio.Reader, stdin io.Reader, out io.Writer, label string) (string, error) {
	f, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return readLine(in, out, label)
	}
	fmt.Fprint(out, label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	pw := strings.TrimSpace(string(b))
	if pw == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.TrimSuffix(label, ": "))
	}
	return pw, nil
}
