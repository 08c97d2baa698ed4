package adpkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/adp-labs/adpkg/internal/blobstore"
	"github.com/adp-labs/adpkg/internal/layer"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Info is everything Inspect learns about a package.
type Info struct {
	Root     string
	Title    string
	Index    ocispec.Index
	Manifest ocispec.Manifest
	// ManifestDescriptor is the index entry for Manifest.
	ManifestDescriptor ocispec.Descriptor
	Config             Config
	Entries            []layer.Entry
}

// Inspect resolves the package at root and lists its layer entries.
func (p *Packager) Inspect(root string) (*Info, error) {
	l, err := p.readLayout(root)
	if err != nil {
		return nil, err
	}

	raw, err := p.readBlob(root, l.manifest.Config, KindLayoutInvalid)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, blobError(KindLayoutInvalid, l.manifest.Config.Digest, fmt.Errorf("decoding config: %w", err))
	}

	desc, err := l.layerDesc()
	if err != nil {
		return nil, err
	}
	entries, err := p.listLayer(root, desc)
	if err != nil {
		return nil, err
	}

	return &Info{
		Root:               root,
		Title:              l.manifestDesc.Annotations[ocispec.AnnotationTitle],
		Index:              l.index,
		Manifest:           l.manifest,
		ManifestDescriptor: l.manifestDesc,
		Config:             cfg,
		Entries:            entries,
	}, nil
}

func (p *Packager) listLayer(root string, desc ocispec.Descriptor) ([]layer.Entry, error) {
	var entries []layer.Entry
	err := p.scanLayer(root, desc, func(r io.Reader) error {
		var err error
		entries, err = layer.List(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// BlobCheck is the outcome of verifying one referenced blob.
type BlobCheck struct {
	Descriptor ocispec.Descriptor
	Role       string // "manifest", "config" or "layer"
	Err        error  // nil when the blob is present and matches
}

// Verify checks every blob the index references: each manifest, and each
// manifest's config and layers. Per-blob failures are reported in the
// checks; the error is only for a package whose index cannot be read.
func (p *Packager) Verify(root string) ([]BlobCheck, error) {
	idx, err := readIndex(root)
	if err != nil {
		return nil, err
	}

	var checks []BlobCheck
	for _, md := range idx.Manifests {
		check := BlobCheck{Descriptor: md, Role: "manifest", Err: checkBlob(root, md, KindManifestNotFound)}
		checks = append(checks, check)
		if check.Err != nil {
			continue
		}

		data, err := blobstore.Get(root, md.Digest)
		if err != nil {
			checks[len(checks)-1].Err = blobError(KindIOError, md.Digest, err)
			continue
		}
		var m ocispec.Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			checks[len(checks)-1].Err = blobError(KindLayoutInvalid, md.Digest, fmt.Errorf("decoding manifest: %w", err))
			continue
		}

		checks = append(checks, BlobCheck{Descriptor: m.Config, Role: "config", Err: checkBlob(root, m.Config, KindLayoutInvalid)})
		for _, ld := range m.Layers {
			checks = append(checks, BlobCheck{Descriptor: ld, Role: "layer", Err: checkBlob(root, ld, KindLayerNotFound)})
		}
	}
	return checks, nil
}

func checkBlob(root string, desc ocispec.Descriptor, missing Kind) error {
	if _, err := blobstore.ParseDigest(string(desc.Digest)); err != nil {
		return blobError(KindLayoutInvalid, desc.Digest, err)
	}
	err := blobstore.Check(root, desc.Digest, desc.Size)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, blobstore.ErrBlobNotFound):
		return &Error{Kind: missing, Path: blobstore.Path(root, desc.Digest), Digest: desc.Digest, Err: err}
	default:
		return classifyRead(desc, err)
	}
}

// Failed reports whether any check failed.
func Failed(checks []BlobCheck) bool {
	for _, c := range checks {
		if c.Err != nil {
			return true
		}
	}
	return false
}

// Unpack extracts every file of the package's layer below dest and returns
// the extracted paths. With verification on, the layer is checked before
// anything is written. Entries that would land outside dest fail with
// KindUnsafePath.
func (p *Packager) Unpack(root, dest string) ([]string, error) {
	l, err := p.readLayout(root)
	if err != nil {
		return nil, err
	}
	desc, err := l.layerDesc()
	if err != nil {
		return nil, err
	}
	if p.verify {
		if err := checkBlob(root, desc, KindLayerNotFound); err != nil {
			return nil, err
		}
	}

	f, err := blobstore.Open(root, desc.Digest)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			return nil, &Error{Kind: KindLayerNotFound, Path: blobstore.Path(root, desc.Digest), Digest: desc.Digest, Err: err}
		}
		return nil, blobError(KindIOError, desc.Digest, err)
	}
	defer f.Close()

	tr, err := layer.NewReader(f, desc.MediaType)
	if err != nil {
		return nil, blobError(KindLayoutInvalid, desc.Digest, err)
	}
	defer tr.Close()

	names, err := layer.Extract(tr, dest)
	if err != nil {
		if errors.Is(err, layer.ErrUnsafePath) {
			return names, &Error{Kind: KindUnsafePath, Digest: desc.Digest, Err: err}
		}
		return names, pathError(KindIOError, dest, err)
	}
	p.logger.Info().Str("root", root).Str("dest", dest).Int("files", len(names)).Msg("package unpacked")
	return names, nil
}

// BlobInfo describes one stored blob.
type BlobInfo struct {
	Digest digest.Digest
	Path   string
	Size   int64
}

// ListBlobs returns every blob stored under root, whether or not the index
// references it.
func ListBlobs(root string) ([]BlobInfo, error) {
	digests, err := blobstore.List(root)
	if err != nil {
		return nil, pathError(KindIOError, root, err)
	}
	infos := make([]BlobInfo, 0, len(digests))
	for _, d := range digests {
		path := blobstore.Path(root, d)
		fi, err := os.Stat(path)
		if err != nil {
			return nil, pathError(KindIOError, path, err)
		}
		infos = append(infos, BlobInfo{Digest: d, Path: path, Size: fi.Size()})
	}
	return infos, nil
}

// Inspect describes the package at root with default options.
func Inspect(root string) (*Info, error) {
	return New().Inspect(root)
}

// Verify checks every referenced blob of the package at root.
func Verify(root string) ([]BlobCheck, error) {
	return New().Verify(root)
}

// Unpack extracts the package at root into dest with default options.
func Unpack(root, dest string) ([]string, error) {
	return New().Unpack(root, dest)
}
