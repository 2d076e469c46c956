package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/planscout/internal/adapters/driving/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the plan index as a JSON API:

  GET    /search?q=...&k=5&provider=Verizon
  GET    /stats
  GET    /providers/{provider}/plans
  DELETE /providers/{provider}/plans
  POST   /ingest/{provider}?refresh=true`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	server, err := api.NewServer(planIndex, ingestion, appLog)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = appConfig.Server.Addr
	}
	cmd.Printf("HTTP API listening on %s\n", addr)
	return server.Run(cmd.Context(), addr)
}
