package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show or delete saved sessions",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	svc, err := buildServices(cmd, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	sessions, err := svc.Store.ListSessions(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved sessions.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tMODE\tQUESTIONS\tSOURCE")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Mode, s.QuestionCount, s.Source)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	svc, err := buildServices(cmd, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	session, err := svc.Store.GetSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, session)
	}
	fmt.Fprintf(out, "Session %s (%s, %s)\n", session.ID, session.Source.Label(), session.Mode)
	fmt.Fprintf(out, "Created %s\n\n", session.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintln(out, session.Summary)
	if len(session.Questions) > 0 {
		printQuestions(out, session.Questions)
	}
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	svc, err := buildServices(cmd, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Store.DeleteSession(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
