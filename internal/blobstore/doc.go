// Package blobstore implements the content-addressed blob tree of an OCI
// image layout. A blob lives at blobs/<algorithm>/<hex> below the layout
// root, where <algorithm>:<hex> is the digest of its bytes. Path computation
// is pure so writers and readers share one definition of the layout.
//
// Digests are sha256 by default; sha512 and blake3 are also supported.
package blobstore
