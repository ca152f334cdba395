package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newThreadCmd(load loader) *cobra.Command {
	threadCmd := &cobra.Command{
		Use:   "thread",
		Short: "Manage conversation threads",
	}

	var metadata map[string]string
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Create an empty thread and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			thread, err := app.Service.CreateThread(cmd.Context(), metadata)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), thread.ThreadID)
			return nil
		},
	}
	newCmd.Flags().StringToStringVar(&metadata, "metadata", nil, "thread metadata as key=value pairs")

	threadCmd.AddCommand(newCmd)
	return threadCmd
}
