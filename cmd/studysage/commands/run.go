package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/studysage/internal/export"
	"github.com/Epistemic-Technology/studysage/internal/operations"
	"github.com/Epistemic-Technology/studysage/models"
)

var (
	runURL       string
	runZotero    string
	runLang      string
	runForceOCR  bool
	runQuestions int
	runNoQuiz    bool
	runExport    bool
	runNoHistory bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Extract, summarize and quiz one document",
	Long: `Run the whole pipeline on a local file, a URL (--url) or a Zotero attachment
(--zotero). The session is saved to history unless --no-history is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "download the document from a URL")
	runCmd.Flags().StringVar(&runZotero, "zotero", "", "read a Zotero attachment by item key")
	runCmd.Flags().StringVarP(&runLang, "lang", "l", "", "OCR language (default from config)")
	runCmd.Flags().BoolVar(&runForceOCR, "force-ocr", false, "OCR PDF pages even when a text layer exists")
	runCmd.Flags().IntVarP(&runQuestions, "questions", "n", 0, "number of questions (default from config)")
	runCmd.Flags().BoolVar(&runNoQuiz, "no-quiz", false, "skip question generation")
	runCmd.Flags().BoolVar(&runExport, "export", false, "write summary and quiz PDFs to the output directory")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "do not save the session")
	runCmd.Flags().IntVar(&summaryMin, "min-length", 0, "minimum summary length (default from config)")
	runCmd.Flags().IntVar(&summaryMax, "max-length", 0, "maximum summary length (default from config)")
	runCmd.MarkFlagsMutuallyExclusive("url", "zotero")
	rootCmd.AddCommand(runCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	source, err := sourceFromArgs(args)
	if err != nil {
		return err
	}

	svc, err := buildServices(cmd, !runNoHistory)
	if err != nil {
		return err
	}
	defer svc.Close()

	n := 0
	if !runNoQuiz {
		n = runQuestions
		if n <= 0 {
			n = cfg.Quiz.NumQuestions
		}
	}
	minLength, maxLength := lengths()

	session, err := svc.Pipeline.Process(cmd.Context(), operations.ProcessRequest{
		Source:       source,
		Language:     langOrDefault(runLang),
		ForceOCR:     runForceOCR,
		Mode:         cfg.ModeConfig(),
		MinLength:    minLength,
		MaxLength:    maxLength,
		NumQuestions: n,
	})
	if err != nil {
		return err
	}

	var exported []string
	if runExport {
		kinds := []export.Kind{export.KindSummary}
		if len(session.Questions) > 0 {
			kinds = append(kinds, export.KindQuiz)
		}
		for _, kind := range kinds {
			path, err := svc.Exporter.Export(kind, session)
			if err != nil {
				return err
			}
			exported = append(exported, path)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, map[string]any{"session": session, "exported": exported})
	}

	if session.Downgraded {
		fmt.Fprintln(out, "Note: input was too large for online mode; summarized offline.")
	}
	fmt.Fprintln(out, "Summary")
	fmt.Fprintln(out, "=======")
	fmt.Fprintln(out, session.Summary)
	if n > 0 {
		fmt.Fprintln(out, "\nQuiz")
		fmt.Fprintln(out, "====")
		printQuestions(out, session.Questions)
	}
	for _, path := range exported {
		fmt.Fprintf(out, "\nSaved %s\n", path)
	}
	if session.ID != "" {
		fmt.Fprintf(out, "\nSession: %s\n", session.ID)
	}
	return nil
}

func sourceFromArgs(args []string) (models.SourceInfo, error) {
	var source models.SourceInfo
	count := 0
	if len(args) == 1 {
		source.Path = args[0]
		count++
	}
	if runURL != "" {
		source.URL = runURL
		count++
	}
	if runZotero != "" {
		source.ZoteroID = runZotero
		count++
	}
	if count != 1 {
		return source, fmt.Errorf("give exactly one of a file path, --url or --zotero")
	}
	return source, nil
}
