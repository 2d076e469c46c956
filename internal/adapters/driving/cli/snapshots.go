package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

var snapshotsClear bool

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots [provider]",
	Short: "List or clear a carrier's snapshots",
	Long: `Lists the saved snapshots for a carrier, oldest first.
With --clear the snapshots are deleted; indexed plans are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshots,
}

func init() {
	snapshotsCmd.Flags().BoolVar(&snapshotsClear, "clear", false, "delete the carrier's snapshots")
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	provider := domain.CanonicalProvider(args[0])

	if snapshotsClear {
		n, err := ingestion.ClearSnapshots(cmd.Context(), provider)
		if err != nil {
			return fmt.Errorf("clear snapshots failed: %w", err)
		}
		cmd.Printf("Removed %d snapshots for %s.\n", n, provider)
		return nil
	}

	names, err := ingestion.ListSnapshots(cmd.Context(), provider)
	if err != nil {
		return fmt.Errorf("list snapshots failed: %w", err)
	}
	if len(names) == 0 {
		cmd.Printf("No snapshots for %s.\n", provider)
		return nil
	}
	for _, n := range names {
		cmd.Println(n)
	}
	return nil
}
