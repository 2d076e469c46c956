// Package domain defines the core business entities for planscout.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - PlanRecord: A raw plan as yielded by a content-retrieval connector
//   - CanonicalPlan: A plan after normalisation to the fixed schema
//   - Document: Rendered plan text plus the metadata used for filtering
//   - IndexedDocument: A document with its id and embedding vector
//   - ProviderSnapshot: A persisted capture of one provider's canonical plans
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
