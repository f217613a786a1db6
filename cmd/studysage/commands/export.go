package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/studysage/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id> <summary|quiz>",
	Short: "Write a saved session's summary or quiz as a PDF",
	Args:  cobra.ExactArgs(2),
	RunE:  runExportSession,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExportSession(cmd *cobra.Command, args []string) error {
	kind, err := export.ParseKind(args[1])
	if err != nil {
		return err
	}

	svc, err := buildServices(cmd, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	session, err := svc.Store.GetSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if kind == export.KindQuiz && len(session.Questions) == 0 {
		return fmt.Errorf("session %s has no quiz", session.ID)
	}

	path, err := svc.Exporter.Export(kind, session)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), map[string]string{"path": path})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
	return nil
}
