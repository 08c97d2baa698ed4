// Package cli defines the Cobra command tree for the adpkg CLI. Each file
// in this package registers one top-level command (pack, open, inspect, etc.)
// with the root command. Commands delegate to internal/adpkg and
// internal/definition and only handle flag parsing and output formatting.
package cli
