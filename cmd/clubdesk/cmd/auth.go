package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmcleod/clubdesk/session"
)

var (
	loginUsername      string
	loginPassword      string
	loginPasswordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in as a teacher",
	Long: `Signs in as a teacher. The session is remembered until logout or until
the service stops accepting it.

The password is read from --password, or from the first line of standard
input with --password-stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginUsername == "" {
			return errors.New("--username is required")
		}
		password := loginPassword
		if loginPasswordStdin {
			var err error
			if password, err = readLine(cmd.InOrStdin()); err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		a.page.Load(cmd.Context())
		a.page.OpenLoginDialog()
		if err := a.page.Login(cmd.Context(), loginUsername, password); err != nil {
			var loginErr *session.LoginError
			if !errors.As(err, &loginErr) {
				return err
			}
			if jsonOutput {
				if err := printJSON(cmd.OutOrStdout(), a.page.Snapshot()); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), a.page.Snapshot().Dialog.Message)
			}
			return errReported
		}

		snap := a.page.Snapshot()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), snap)
		}
		printStatus(cmd.OutOrStdout(), snap.Controls)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the remembered session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		a.page.Session().Restore()
		a.page.Logout(cmd.Context())
		return output(cmd.OutOrStdout(), a.page.Snapshot())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Verify the remembered session and show who is signed in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		sess := a.page.Session()
		sess.Restore()
		sess.Verify(cmd.Context())
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), sess.Controls())
		}
		printStatus(cmd.OutOrStdout(), sess.Controls())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Teacher username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Teacher password")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from standard input")
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
