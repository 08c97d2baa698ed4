// Package definition parses and validates agent definitions (adp/agent.yaml).
//
// Parse and Load decode YAML into a Definition. Validate applies the rules a
// definition must meet before it can be packaged: a supported adp_version and
// a non-empty runtime.execution list. ValidateSchema additionally checks the
// raw document against an embedded JSON schema.
package definition
