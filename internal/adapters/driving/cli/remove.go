package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

var removeCmd = &cobra.Command{
	Use:   "remove [provider]",
	Short: "Remove a carrier's plans from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	provider := domain.CanonicalProvider(args[0])
	removed, err := planIndex.RemoveForProvider(cmd.Context(), provider).Unwrap()
	if err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	cmd.Printf("Removed %d documents for %s.\n", removed, provider)
	return nil
}
