package adpkg

import (
	"encoding/json"
	"fmt"

	"github.com/adp-labs/adpkg/internal/blobstore"
	"github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Config is the package config blob.
type Config struct {
	AgentID    string `json:"agent_id"`
	ADPVersion string `json:"adp_version"`
}

// blob is serialized content together with the descriptor that names it.
type blob struct {
	desc ocispec.Descriptor
	data []byte
}

// newBlob hashes data with alg and describes it as mediaType.
func newBlob(alg digest.Algorithm, mediaType string, data []byte) (blob, error) {
	d, err := blobstore.FromBytes(alg, data)
	if err != nil {
		return blob{}, err
	}
	return blob{
		desc: ocispec.Descriptor{
			MediaType: mediaType,
			Digest:    d,
			Size:      int64(len(data)),
		},
		data: data,
	}, nil
}

// marshalJSON is the single serializer for every JSON document in a
// package. Struct field order and fixed indentation keep output stable.
func marshalJSON(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	return data, nil
}

func buildConfig(alg digest.Algorithm, agentID, adpVersion string) (blob, error) {
	data, err := marshalJSON(Config{AgentID: agentID, ADPVersion: adpVersion})
	if err != nil {
		return blob{}, err
	}
	return newBlob(alg, MediaTypeConfig, data)
}

func buildManifest(alg digest.Algorithm, config, layer ocispec.Descriptor) (blob, error) {
	m := ocispec.Manifest{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: MediaTypeImageManifest,
		Config:    config,
		Layers:    []ocispec.Descriptor{layer},
	}
	data, err := marshalJSON(m)
	if err != nil {
		return blob{}, err
	}
	return newBlob(alg, MediaTypeImageManifest, data)
}

// buildIndex lists the single manifest, titled with the agent id.
func buildIndex(manifest ocispec.Descriptor, title string) ([]byte, error) {
	manifest.Annotations = map[string]string{ocispec.AnnotationTitle: title}
	idx := ocispec.Index{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: MediaTypeImageIndex,
		Manifests: []ocispec.Descriptor{manifest},
	}
	return marshalJSON(idx)
}

// buildLayoutMarker returns the oci-layout file, written compact as
// {"imageLayoutVersion":"1.0.0"}.
func buildLayoutMarker() ([]byte, error) {
	return json.Marshal(ocispec.ImageLayout{Version: LayoutVersion})
}
