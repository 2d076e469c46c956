package mcp

import (
	"github.com/custodia-labs/planscout/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Index answers searches and listings.
	Index driving.PlanIndex

	// Ingest refreshes providers. Optional; the ingest tool is only
	// registered when it is set.
	Ingest driving.IngestionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Index == nil {
		return ErrMissingIndex
	}
	return nil
}
