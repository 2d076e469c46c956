// Package services implements the driving port interfaces.
// Services contain the core logic: the plan index, the ingestion
// orchestrator, scheduled refreshes and settings. They call driven ports
// (adapters) and never import an adapter directly.
package services
