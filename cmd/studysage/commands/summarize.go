package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	summaryMin int
	summaryMax int
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file|-]",
	Short: "Summarize text from a file or stdin",
	Long: `Summarize the text of a notes file, or of stdin when the argument is "-" or
missing. Online mode needs HF_API_KEY; long inputs fall back to offline.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().IntVar(&summaryMin, "min-length", 0, "minimum summary length (default from config)")
	summarizeCmd.Flags().IntVar(&summaryMax, "max-length", 0, "maximum summary length (default from config)")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	svc, err := buildServices(cmd, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	var text string
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	} else {
		text, err = svc.Pipeline.ExtractTextFromFile(cmd.Context(), args[0], cfg.OCR.Language, false)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to summarize")
	}

	minLength, maxLength := lengths()
	res, err := svc.Pipeline.SummarizeTextDetailed(cmd.Context(), text, minLength, maxLength, cfg.ModeConfig())
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), res)
	}
	if res.Downgraded {
		fmt.Fprintln(cmd.ErrOrStderr(), "Input too large for online mode; summarized offline.")
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Summary)
	return nil
}

func lengths() (int, int) {
	minLength, maxLength := cfg.Summary.MinLength, cfg.Summary.MaxLength
	if summaryMin > 0 {
		minLength = summaryMin
	}
	if summaryMax > 0 {
		maxLength = summaryMax
	}
	return minLength, maxLength
}

func readFileArg(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
