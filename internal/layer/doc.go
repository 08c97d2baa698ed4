// Package layer builds and reads the single tar layer of an agent package.
// Build archives a source tree reproducibly, skipping the package's own
// output directory; ReadEntry, List and Extract consume the tar stream
// returned by NewReader, which undoes the optional gzip or zstd encoding.
package layer
