// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Converts text into fixed-length vectors
//   - VectorStore: Persists vectors, text and metadata; nearest-neighbour queries
//   - PlanFetcher: Yields raw plan records for a provider
//   - PlanNormaliser: Converts raw records into canonical plans
//   - DocumentBuilder: Renders canonical plans into indexable documents
//   - SnapshotStore: Append-only provider snapshot persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PlanWatcher: Pushes provider names when new raw feeds arrive. Without it, watch mode is disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
