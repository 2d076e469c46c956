package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	stats, err := planIndex.Stats(cmd.Context()).Unwrap()
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if statsJSON {
		return printJSON(cmd, stats)
	}

	p := newPrinter(cmd)
	p.Heading("Collection %s", stats.CollectionName)
	p.Line("  Backend:   %s", stats.Backend)
	p.Line("  Documents: %d", stats.TotalDocuments)

	providers := make([]string, 0, len(stats.ProviderCounts))
	for name := range stats.ProviderCounts {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	for _, name := range providers {
		p.Line("    %-12s %d", name, stats.ProviderCounts[name])
	}
	return nil
}
