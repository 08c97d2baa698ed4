package adpkg

import (
	"github.com/adp-labs/adpkg/internal/definition"
	"github.com/adp-labs/adpkg/internal/layer"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Media types written into manifests and the index.
const (
	MediaTypeConfig        = "application/vnd.adp.config.v1+json"
	MediaTypeLayer         = layer.MediaTypeTar
	MediaTypeLayerGzip     = layer.MediaTypeTarGzip
	MediaTypeLayerZstd     = layer.MediaTypeTarZstd
	MediaTypeImageManifest = ocispec.MediaTypeImageManifest
	MediaTypeImageIndex    = ocispec.MediaTypeImageIndex
)

// Layout file names and values.
const (
	LayoutFile    = ocispec.ImageLayoutFile
	LayoutVersion = ocispec.ImageLayoutVersion
	IndexFile     = ocispec.ImageIndexFile
	BlobsDir      = ocispec.ImageBlobsDir

	// DefinitionPath is the layer entry holding the agent definition.
	DefinitionPath = definition.Path
)
