package cmd

import "github.com/spf13/cobra"

var activitiesCmd = &cobra.Command{
	Use:     "activities",
	Aliases: []string{"ls"},
	Short:   "List activities, their schedules and spots left",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		snap := a.page.Load(cmd.Context())
		if err := output(cmd.OutOrStdout(), snap); err != nil {
			return err
		}
		if snap.Roster.Failure != "" {
			return errReported
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(activitiesCmd)
}
