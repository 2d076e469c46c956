// Package connectors provides implementations of the PlanFetcher interface
// for plan record sources. Each connector knows how to obtain raw plan
// records for a provider from one kind of source (local feed files, the
// built-in sample set).
//
// Connectors are registered with the Factory at startup.
package connectors
