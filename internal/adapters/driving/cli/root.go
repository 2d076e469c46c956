// Package cli implements the planscout command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driving"
	"github.com/custodia-labs/planscout/internal/logger"
)

// EnvHome overrides the planscout home directory (default ~/.planscout).
const EnvHome = "PLANSCOUT_HOME"

// needsAnnotation marks how much of the application a command needs.
const needsAnnotation = "planscout/needs"

// Values for needsAnnotation. Commands without the annotation need everything.
const (
	needsNothing  = "nothing"
	needsSettings = "settings"
)

var version = "dev"

// Flags shared by every command.
var (
	verbose     bool
	backendFlag string
	sourceFlag  string
)

// Services used by the commands. They are built by bootstrap, or injected
// by tests before Execute.
var (
	appLog          = logger.Nop()
	appConfig       domain.Config
	settingsService driving.SettingsService
	planIndex       driving.PlanIndex
	ingestion       driving.IngestionService

	servicesInjected bool
	shutdown         func()
)

var rootCmd = &cobra.Command{
	Use:   "planscout",
	Short: "Index and search mobile carrier plans",
	Long: `planscout normalises mobile plan records from carrier feeds, embeds them
and keeps them in a provider-scoped vector index for semantic search.

Run "planscout ingest --all" to index every known carrier, then
"planscout search" to find plans.`,
	SilenceUsage:      true,
	PersistentPreRunE: bootstrap,
	PersistentPostRun: func(*cobra.Command, []string) {
		if shutdown != nil {
			shutdown()
			shutdown = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "",
		"index backend: memory, sqlite, qdrant or postgres (overrides config)")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "feed",
		"plan record source: feed or sample")
}

// SetVersion sets the version reported by the version command and traces.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// bootstrap builds the services the command needs.
func bootstrap(cmd *cobra.Command, _ []string) error {
	appLog = logger.New(cmd.ErrOrStderr(), verbose)

	needs := cmd.Annotations[needsAnnotation]
	if servicesInjected || needs == needsNothing {
		return nil
	}

	if err := loadDotEnv(); err != nil {
		appLog.Warn("loading .env: %v", err)
	}

	home, err := homeDir()
	if err != nil {
		return err
	}
	settings, err := newSettings(home)
	if err != nil {
		return err
	}
	settingsService = settings
	if needs == needsSettings {
		return nil
	}

	cfg, err := settings.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if backendFlag != "" {
		cfg.Index.Backend = domain.IndexBackend(backendFlag)
	}
	cfg.Verbose = verbose
	if err := cfg.Validate(); err != nil {
		return err
	}
	appConfig = cfg

	a, err := buildApp(cmd.Context(), cfg, sourceFlag, appLog)
	if err != nil {
		return err
	}
	planIndex = a.index
	ingestion = a.ingestion
	shutdown = a.close
	return nil
}

// loadDotEnv loads .env from the working directory if present.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// homeDir returns the planscout home directory.
func homeDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".planscout"), nil
}

// requireServices reports an error when the index services are missing.
func requireServices() error {
	if planIndex == nil || ingestion == nil {
		return errors.New("plan index not configured")
	}
	return nil
}
