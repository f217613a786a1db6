package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/operations"
	"github.com/Epistemic-Technology/studysage/models"
)

var (
	cfgFile  string
	verbose  bool
	modeFlag string
	jsonOut  bool

	cfg *config.Config
	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "studysage",
	Short: "StudySage - summarize study notes and quiz yourself",
	Long: `StudySage reads notes from text, Markdown, PDF or image files (with OCR for
scans and photos), summarizes them with a local model or the Hugging Face
inference API, and generates fill-in-the-blank quiz questions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if modeFlag != "" {
			cfg.Mode = models.Mode(modeFlag)
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		logCfg := logger.LogConfig{Component: "cli"}
		if verbose {
			logCfg.Output = "stderr"
			logCfg.Level = "debug"
		}
		log, err = logger.NewLogger(logCfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "", "summarization mode: online or offline")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// buildServices wires the pipeline with a progress printer on stderr.
func buildServices(cmd *cobra.Command, withStore bool) (*operations.Services, error) {
	errOut := cmd.ErrOrStderr()
	return operations.Build(cfg, log, operations.BuildOptions{
		NoStore:  !withStore,
		Progress: progressPrinter(errOut),
	})
}

func progressPrinter(w io.Writer) operations.ProgressFunc {
	return func(stage string, step, total int) {
		if total > 0 {
			fmt.Fprintf(w, "%s %d/%d\n", stage, step, total)
		} else {
			fmt.Fprintln(w, stage)
		}
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printQuestions(w io.Writer, questions []models.Question) {
	if len(questions) == 0 {
		fmt.Fprintln(w, "Not enough material to generate questions.")
		return
	}
	for i, q := range questions {
		fmt.Fprintf(w, "\nQ%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			fmt.Fprintf(w, "   %d. %s\n", j+1, opt)
		}
		fmt.Fprintf(w, "   Answer: %s\n", q.Answer)
	}
}
