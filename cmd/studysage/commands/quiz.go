package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var quizCount int

var quizCmd = &cobra.Command{
	Use:   "quiz [summary-file|-]",
	Short: "Generate fill-in-the-blank questions from a summary",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runQuiz,
}

func init() {
	quizCmd.Flags().IntVarP(&quizCount, "questions", "n", 0, "number of questions (default from config)")
	rootCmd.AddCommand(quizCmd)
}

func runQuiz(cmd *cobra.Command, args []string) error {
	svc, err := buildServices(cmd, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	var summary string
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		summary = string(data)
	} else {
		summary, err = readFileArg(args[0])
		if err != nil {
			return err
		}
	}

	questions := svc.Pipeline.GenerateQuestions(strings.TrimSpace(summary), questionCount())
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), questions)
	}
	printQuestions(cmd.OutOrStdout(), questions)
	return nil
}

func questionCount() int {
	if quizCount > 0 {
		return quizCount
	}
	return cfg.Quiz.NumQuestions
}
