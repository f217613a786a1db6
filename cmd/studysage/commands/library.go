package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/studysage/internal/operations"
)

var (
	libraryTags       []string
	libraryCollection string
	libraryLimit      int
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Browse the Zotero library for study material",
}

var librarySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find Zotero items with readable attachments",
	Long: `Search the Zotero library configured through ZOTERO_API_KEY and
ZOTERO_LIBRARY_ID. Pass an attachment key to "studysage run --zotero".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLibrarySearch,
}

func init() {
	librarySearchCmd.Flags().StringSliceVarP(&libraryTags, "tag", "t", nil, "filter by tag (repeatable)")
	librarySearchCmd.Flags().StringVar(&libraryCollection, "collection", "", "restrict to a collection key")
	librarySearchCmd.Flags().IntVar(&libraryLimit, "limit", 25, "maximum number of items")
	libraryCmd.AddCommand(librarySearchCmd)
	rootCmd.AddCommand(libraryCmd)
}

func runLibrarySearch(cmd *cobra.Command, args []string) error {
	params := operations.LibrarySearchParams{
		Tags:       libraryTags,
		Collection: libraryCollection,
		Limit:      libraryLimit,
	}
	if len(args) == 1 {
		params.Query = args[0]
	}

	items, err := operations.FindStudyMaterial(cmd.Context(), cfg.Zotero.APIKey, cfg.Zotero.LibraryID, params, log)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No items with readable attachments found.")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(out, "%s  %s", item.Key, item.Title)
		if len(item.Creators) > 0 {
			fmt.Fprintf(out, " (%s)", strings.Join(item.Creators, "; "))
		}
		fmt.Fprintln(out)
		for _, a := range item.Attachments {
			fmt.Fprintf(out, "    %s  %s [%s]\n", a.Key, a.Filename, a.Format)
		}
	}
	return nil
}
