// Package adpkg packages agent projects as OCI image layouts and reads them
// back.
//
// A package directory holds an oci-layout marker, an index.json listing one
// manifest, and content-addressed blobs under blobs/<algorithm>/<hex>: the
// manifest, a small JSON config naming the agent, and a single tar layer of
// the project tree. Create validates adp/agent.yaml before writing anything;
// Open walks index, manifest and layer to recover the definition without
// extracting files.
package adpkg
