package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

var (
	searchLimit    int
	searchProvider string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed plans",
	Long: `Finds the plans closest in meaning to the query using semantic
(vector) search. Use --provider to restrict results to one carrier.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchProvider, "provider", "p", "", "only return plans from this carrier")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	provider := ""
	if searchProvider != "" {
		provider = domain.CanonicalProvider(searchProvider)
	}

	hits, err := planIndex.Search(cmd.Context(), args[0], searchLimit, provider).Unwrap()
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

func outputSearchTable(cmd *cobra.Command, hits []domain.SearchHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	p := newPrinter(cmd)
	p.Heading("Results:")
	cmd.Println()
	for i, h := range hits {
		meta := h.Document.Metadata
		p.Line("  [%d] %s %s", i+1, p.Accent(meta.Name), p.Muted(fmt.Sprintf("(%.2f)", h.Score)))
		p.Line("      %s | %s | %s", meta.Provider, meta.PriceDisplay, meta.DataDisplay)
		if meta.URL != "" {
			p.Line("      %s", p.Muted(meta.URL))
		}
		cmd.Println()
	}
	return nil
}
