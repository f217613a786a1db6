package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage the offline summarization model",
}

var modelPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the local model if it is not cached yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildServices(cmd, false)
		if err != nil {
			return err
		}
		defer svc.Close()

		fmt.Fprintf(cmd.ErrOrStderr(), "Ensuring model %s is available...\n", svc.LocalModel.Model())
		if err := svc.LocalModel.EnsureModel(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Model %s is ready.\n", svc.LocalModel.Model())
		return nil
	},
}

func init() {
	modelCmd.AddCommand(modelPullCmd)
	rootCmd.AddCommand(modelCmd)
}
