package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

var (
	plansLimit int
	plansJSON  bool
)

var plansCmd = &cobra.Command{
	Use:   "plans [provider]",
	Short: "List indexed plans for a carrier",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlans,
}

func init() {
	plansCmd.Flags().IntVarP(&plansLimit, "limit", "n", domain.DefaultProviderListingLimit,
		"maximum number of plans (0 for all)")
	plansCmd.Flags().BoolVar(&plansJSON, "json", false, "output plans as JSON")
	rootCmd.AddCommand(plansCmd)
}

func runPlans(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	provider := domain.CanonicalProvider(args[0])
	docs, err := planIndex.SearchByProvider(cmd.Context(), provider, plansLimit).Unwrap()
	if err != nil {
		return fmt.Errorf("listing plans failed: %w", err)
	}

	if plansJSON {
		return printJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Printf("No plans indexed for %s.\n", provider)
		return nil
	}

	p := newPrinter(cmd)
	p.Heading("%s plans (%d):", provider, len(docs))
	for _, d := range docs {
		meta := d.Document.Metadata
		p.Line("  - %s  %s  %s", p.Accent(meta.Name), meta.PriceDisplay, p.Muted(meta.DataDisplay))
	}
	return nil
}
