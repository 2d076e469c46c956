// Package file provides the TOML-backed configuration store.
// Settings live in ~/.planscout/config.toml as nested tables and are
// exposed to callers under dot-notation keys such as "index.backend".
package file
