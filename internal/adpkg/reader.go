package adpkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adp-labs/adpkg/internal/blobstore"
	"github.com/adp-labs/adpkg/internal/definition"
	"github.com/adp-labs/adpkg/internal/layer"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// layout is a package resolved from its index down to the manifest.
type layout struct {
	index        ocispec.Index
	manifestDesc ocispec.Descriptor
	manifest     ocispec.Manifest
}

func (l *layout) layerDesc() (ocispec.Descriptor, error) {
	if len(l.manifest.Layers) == 0 {
		return ocispec.Descriptor{}, blobError(KindLayerNotFound, l.manifestDesc.Digest,
			errors.New("manifest lists no layers"))
	}
	desc := l.manifest.Layers[0]
	if _, err := blobstore.ParseDigest(string(desc.Digest)); err != nil {
		return ocispec.Descriptor{}, blobError(KindLayoutInvalid, l.manifestDesc.Digest,
			fmt.Errorf("layer descriptor: %w", err))
	}
	return desc, nil
}

// Open reads the agent definition from the package at root. The layer is
// scanned entry by entry; nothing is extracted to disk. With verification
// on, every blob read is checked against its descriptor.
func (p *Packager) Open(root string) (*definition.Definition, error) {
	l, err := p.readLayout(root)
	if err != nil {
		return nil, err
	}
	desc, err := l.layerDesc()
	if err != nil {
		return nil, err
	}

	data, err := p.readLayerEntry(root, desc, DefinitionPath)
	if err != nil {
		return nil, err
	}
	def, err := definition.Parse(data)
	if err != nil {
		return nil, &Error{Kind: KindParseError, Path: DefinitionPath, Digest: desc.Digest, Err: err}
	}
	p.logger.Debug().Str("root", root).Str("id", def.ID).Msg("package opened")
	return def, nil
}

// readLayout loads oci-layout, index.json, and the first manifest.
func (p *Packager) readLayout(root string) (*layout, error) {
	idx, err := readIndex(root)
	if err != nil {
		return nil, err
	}
	indexPath := filepath.Join(root, IndexFile)
	if len(idx.Manifests) == 0 {
		return nil, pathError(KindLayoutInvalid, indexPath, errors.New("index lists no manifests"))
	}

	desc := idx.Manifests[0]
	if _, err := blobstore.ParseDigest(string(desc.Digest)); err != nil {
		return nil, pathError(KindLayoutInvalid, indexPath, err)
	}
	raw, err := p.readBlob(root, desc, KindManifestNotFound)
	if err != nil {
		return nil, err
	}
	var m ocispec.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, blobError(KindLayoutInvalid, desc.Digest, fmt.Errorf("decoding manifest: %w", err))
	}

	return &layout{index: *idx, manifestDesc: desc, manifest: m}, nil
}

// readIndex reads index.json and checks oci-layout without resolving any
// blob.
func readIndex(root string) (*ocispec.Index, error) {
	indexPath := filepath.Join(root, IndexFile)
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, pathError(KindLayoutInvalid, indexPath, err)
	}
	var idx ocispec.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, pathError(KindLayoutInvalid, indexPath, fmt.Errorf("decoding index: %w", err))
	}
	if err := readLayoutMarker(root); err != nil {
		return nil, err
	}
	return &idx, nil
}

func readLayoutMarker(root string) error {
	path := filepath.Join(root, LayoutFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return pathError(KindLayoutInvalid, path, err)
	}
	var marker ocispec.ImageLayout
	if err := json.Unmarshal(data, &marker); err != nil {
		return pathError(KindLayoutInvalid, path, fmt.Errorf("decoding layout marker: %w", err))
	}
	if marker.Version != LayoutVersion {
		return pathError(KindLayoutInvalid, path,
			fmt.Errorf("unsupported image layout version %q", marker.Version))
	}
	return nil
}

// readBlob returns the content of a small blob (manifest or config).
// missing is the Kind reported when the blob file does not exist.
func (p *Packager) readBlob(root string, desc ocispec.Descriptor, missing Kind) ([]byte, error) {
	rc, err := p.openBlob(root, desc, missing)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, classifyRead(desc, err)
	}
	return data, nil
}

// openBlob opens the stored blob for desc, verifying it as it streams when
// verification is on.
func (p *Packager) openBlob(root string, desc ocispec.Descriptor, missing Kind) (io.ReadCloser, error) {
	if _, err := blobstore.ParseDigest(string(desc.Digest)); err != nil {
		return nil, blobError(KindLayoutInvalid, desc.Digest, err)
	}
	f, err := blobstore.Open(root, desc.Digest)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Kind: missing, Path: blobstore.Path(root, desc.Digest), Digest: desc.Digest, Err: err}
		}
		return nil, &Error{Kind: KindIOError, Path: blobstore.Path(root, desc.Digest), Digest: desc.Digest, Err: err}
	}
	if !p.verify {
		return f, nil
	}
	vr, err := blobstore.VerifyReader(f, desc.Digest, desc.Size)
	if err != nil {
		f.Close()
		return nil, blobError(KindLayoutInvalid, desc.Digest, err)
	}
	return struct {
		io.Reader
		io.Closer
	}{vr, f}, nil
}

// readLayerEntry returns the content of the layer entry called name.
func (p *Packager) readLayerEntry(root string, desc ocispec.Descriptor, name string) ([]byte, error) {
	var data []byte
	err := p.scanLayer(root, desc, func(r io.Reader) error {
		var err error
		data, err = layer.ReadEntry(r, name)
		if errors.Is(err, layer.ErrEntryNotFound) {
			return &Error{Kind: KindDefinitionNotFound, Path: name, Digest: desc.Digest, Err: err}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// scanLayer hands the uncompressed tar stream of the layer for desc to scan.
// The raw blob is then read to its end, so verification covers the whole
// layer even when scan stopped early. A verification failure takes
// precedence over the scan's own error but keeps the path the scan named.
func (p *Packager) scanLayer(root string, desc ocispec.Descriptor, scan func(io.Reader) error) error {
	raw, err := p.openBlob(root, desc, KindLayerNotFound)
	if err != nil {
		return err
	}
	defer raw.Close()

	tr, err := layer.NewReader(raw, desc.MediaType)
	if err != nil {
		return blobError(KindLayoutInvalid, desc.Digest, err)
	}
	scanErr := scan(tr)
	closeErr := tr.Close()

	if _, err := io.Copy(io.Discard, raw); err != nil {
		readErr := classifyRead(desc, err)
		var e *Error
		if errors.As(scanErr, &e) && e.Path != "" {
			return &Error{Kind: KindOf(readErr), Path: e.Path, Digest: desc.Digest, Err: err}
		}
		return readErr
	}
	if scanErr != nil {
		var e *Error
		if errors.As(scanErr, &e) {
			return scanErr
		}
		return blobError(KindIOError, desc.Digest, scanErr)
	}
	if closeErr != nil {
		return blobError(KindIOError, desc.Digest, closeErr)
	}
	return nil
}

// classifyRead maps a failed blob read to a Kind.
func classifyRead(desc ocispec.Descriptor, err error) error {
	if errors.Is(err, blobstore.ErrDigestMismatch) || errors.Is(err, blobstore.ErrSizeMismatch) {
		return blobError(KindDigestMismatch, desc.Digest, err)
	}
	return blobError(KindIOError, desc.Digest, err)
}
