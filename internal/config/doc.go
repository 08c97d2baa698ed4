// Package config manages user-level settings stored at ~/.adpkg/config.yaml.
// Settings choose the digest algorithm and layer compression for new
// packages, whether blobs are verified on read, whether definitions are
// checked against the JSON schema, the log level, and names to leave out of
// layers. Each can be overridden with an ADPKG_-prefixed environment variable.
package config
