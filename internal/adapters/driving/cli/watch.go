package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/services"
)

var watchEvery time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-ingest carriers when their feeds change",
	Long: `Watches the feed directory and re-ingests a carrier, bypassing its
snapshot, whenever one of its feed files is created or rewritten.

With --every, every known carrier is also refreshed on a fixed interval.
This works with sources that cannot be watched. Stops on interrupt.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchEvery, "every", 0, "also refresh all carriers on this interval (e.g. 6h)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	var scheduler *services.RefreshScheduler
	schedErr := make(chan error, 1)
	if watchEvery > 0 {
		scheduler = services.NewRefreshScheduler(ingestion, domain.KnownProviders, watchEvery, appLog)
		go func() { schedErr <- scheduler.Start(ctx) }()
		defer func() { _ = scheduler.Stop() }()
		cmd.Printf("Refreshing all carriers every %s\n", watchEvery)
	}

	cmd.Println("Watching for feed changes (Ctrl+C to stop)...")
	err := ingestion.Watch(ctx)
	if err != nil && scheduler != nil && domain.KindOf(err) == domain.KindConfiguration {
		appLog.Warn("feed watch unavailable, scheduled refresh only: %v", err)
		err = <-schedErr
		if errors.Is(err, ctx.Err()) {
			err = nil
		}
	}
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
