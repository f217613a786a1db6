package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	extractLang     string
	extractForceOCR bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Print the text of a notes file",
	Long: `Extract text from a .txt/.md file, a PDF (text layer or OCR) or an image
(OCR). The document can also come from --url or --zotero.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractLang, "lang", "l", "", `OCR language, e.g. "eng", "eng+hin" or "auto" (default from config)`)
	extractCmd.Flags().BoolVar(&extractForceOCR, "force-ocr", false, "OCR PDF pages even when a text layer exists")
	extractCmd.Flags().StringVar(&runURL, "url", "", "download the document from a URL")
	extractCmd.Flags().StringVar(&runZotero, "zotero", "", "read a Zotero attachment by item key")
	extractCmd.MarkFlagsMutuallyExclusive("url", "zotero")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	source, err := sourceFromArgs(args)
	if err != nil {
		return err
	}

	svc, err := buildServices(cmd, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	text, err := svc.Pipeline.ExtractTextFromSource(cmd.Context(), source, langOrDefault(extractLang), extractForceOCR)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), map[string]any{"source": source.Label(), "text": text})
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func langOrDefault(lang string) string {
	if lang == "" {
		return cfg.OCR.Language
	}
	return lang
}
