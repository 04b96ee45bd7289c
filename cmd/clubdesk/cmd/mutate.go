package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jmcleod/clubdesk/roster"
)

var signupCmd = &cobra.Command{
	Use:   "signup <activity> <email>",
	Short: "Register a student for an activity (teachers only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(a *app) roster.Message {
			return a.page.Signup(cmd.Context(), roster.Form{Activity: args[0], Email: args[1]})
		})
	},
}

var unregisterCmd = &cobra.Command{
	Use:     "unregister <activity> <email>",
	Aliases: []string{"remove"},
	Short:   "Remove a student from an activity (teachers only)",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(a *app) roster.Message {
			return a.page.Unregister(cmd.Context(), args[0], args[1])
		})
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(unregisterCmd)
}

// mutate loads the page, runs do and prints the page with its message.
func mutate(cmd *cobra.Command, do func(a *app) roster.Message) error {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	a.page.Load(cmd.Context())
	msg := do(a)
	if err := output(cmd.OutOrStdout(), a.page.Snapshot()); err != nil {
		return err
	}
	if msg.Kind == roster.KindError {
		return errReported
	}
	return nil
}
