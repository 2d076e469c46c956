package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

var (
	ingestRefresh bool
	ingestAll     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [provider...]",
	Short: "Ingest carrier plans into the index",
	Long: `Obtains plan records for each carrier, normalises them and replaces
the carrier's documents in the index.

The latest snapshot is reused unless --refresh is given, in which case
records are fetched again and a new snapshot is written.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRefresh, "refresh", "r", false, "ignore snapshots and fetch fresh records")
	ingestCmd.Flags().BoolVarP(&ingestAll, "all", "a", false, "ingest every known carrier")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	providers := args
	if ingestAll {
		providers = domain.KnownProviders
	}
	if len(providers) == 0 {
		return errors.New("specify at least one provider or use --all")
	}

	reports, err := ingestion.IngestAll(cmd.Context(), providers, ingestRefresh)

	p := newPrinter(cmd)
	for i := range reports {
		printReport(p, &reports[i])
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func printReport(p *printer, r *domain.IngestReport) {
	origin := "fetched"
	if r.FromCache {
		origin = "from snapshot"
	}
	p.Line("%s %s: %d plans (%s), %d documents indexed",
		p.Success("✓"), r.Provider, r.Plans, origin, r.Documents)
	if r.Skipped > 0 {
		p.Line("    %s", p.Muted(fmt.Sprintf("%d records skipped", r.Skipped)))
	}
	if r.SnapshotPath != "" {
		p.Line("    %s", p.Muted("snapshot: "+r.SnapshotPath))
	}
}
