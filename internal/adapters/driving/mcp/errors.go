// Package mcp provides an MCP (Model Context Protocol) server adapter for planscout.
// It lets AI assistants search the plan index and inspect what it holds.
package mcp

import "errors"

// ErrMissingIndex is returned when the plan index is not provided.
var ErrMissingIndex = errors.New("mcp: plan index is required")
