package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/planscout/internal/adapters/driven/ai"
	"github.com/custodia-labs/planscout/internal/adapters/driven/storage"
	"github.com/custodia-labs/planscout/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Show or change settings",
	Annotations: map[string]string{needsAnnotation: needsSettings},
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective settings",
	Annotations: map[string]string{needsAnnotation: needsSettings},
	RunE:        runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Persist a setting",
	Long: `Writes a single setting to the config file.

Examples:
  planscout config set index.backend qdrant
  planscout config set embedding.batch_size 50
  planscout config set telemetry.otlp_endpoint localhost:4317`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{needsAnnotation: needsSettings},
	RunE:        runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file path",
	Annotations: map[string]string{needsAnnotation: needsSettings},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errSettingsUnavailable
		}
		cmd.Println(settingsService.Path())
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and test connectivity",
	Long: `Validates the settings, sends a test request to the embedding service
and opens the configured index backend.`,
	Annotations: map[string]string{needsAnnotation: needsSettings},
	RunE:        runConfigCheck,
}

var errSettingsUnavailable = errors.New("settings not available")

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configPathCmd, configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsUnavailable
	}
	cfg, err := settingsService.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	p := newPrinter(cmd)
	p.Heading("Embedding")
	p.Line("  provider:    %s", cfg.Embedding.Provider)
	p.Line("  model:       %s", cfg.Embedding.Model)
	p.Line("  base_url:    %s", orNone(cfg.Embedding.BaseURL))
	p.Line("  api_key:     %s", maskSecret(cfg.Embedding.APIKey))
	p.Line("  batch_size:  %d", cfg.Embedding.BatchSize)
	p.Heading("Index")
	p.Line("  backend:     %s", cfg.Index.Backend)
	p.Line("  collection:  %s", cfg.Index.Collection)
	p.Line("  data_dir:    %s", cfg.Index.DataDir)
	switch cfg.Index.Backend {
	case domain.BackendQdrant:
		p.Line("  qdrant:      %s:%d", cfg.Qdrant.Host, cfg.Qdrant.Port)
	case domain.BackendPostgres:
		p.Line("  postgres:    %s", maskSecret(cfg.Postgres.DSN))
	}
	p.Heading("Storage")
	p.Line("  snapshots:   %s", cfg.Snapshot.Dir)
	p.Line("  feeds:       %s", cfg.Feed.Dir)
	p.Heading("Server")
	p.Line("  addr:        %s", cfg.Server.Addr)
	p.Line("  otlp:        %s", orNone(cfg.Telemetry.OTLPEndpoint))

	if err := cfg.Validate(); err != nil {
		cmd.Println()
		p.Line("%s %v", p.Failure("!"), err)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsUnavailable
	}
	key, value := args[0], parseValue(args[1])
	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsUnavailable
	}
	cfg, err := settingsService.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if backendFlag != "" {
		cfg.Index.Backend = domain.IndexBackend(backendFlag)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	p := newPrinter(cmd)
	ctx := cmd.Context()

	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, cfg.Embedding)
	if err != nil {
		p.Line("%s embedding (%s): %v", p.Failure("✗"), cfg.Embedding.Provider, err)
		return err
	}
	defer func() { _ = embedder.Close() }()
	p.Line("%s embedding: %s, %d dimensions", p.Success("✓"), embedder.ModelName(), embedder.Dimensions())

	store, err := storage.OpenVectorStore(ctx, cfg)
	if err != nil {
		p.Line("%s index (%s): %v", p.Failure("✗"), cfg.Index.Backend, err)
		return err
	}
	defer func() { _ = store.Close() }()
	count, err := store.Count(ctx)
	if err != nil {
		p.Line("%s index (%s): %v", p.Failure("✗"), store.Name(), err)
		return err
	}
	p.Line("%s index: %s, %d documents in %s", p.Success("✓"), store.Name(), count, cfg.Index.Collection)
	return nil
}

// parseValue converts a command-line value to the narrowest TOML type.
func parseValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", 4) + s[len(s)-4:]
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
