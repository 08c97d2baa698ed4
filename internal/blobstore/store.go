package blobstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// File modes for the blob tree.
const (
	DirPerm  os.FileMode = 0755
	FilePerm os.FileMode = 0644
)

var (
	// ErrBlobNotFound is returned when no blob exists for a digest.
	ErrBlobNotFound = fmt.Errorf("blob not found: %w", fs.ErrNotExist)
	// ErrDigestMismatch is returned when content does not hash to its digest.
	ErrDigestMismatch = errors.New("digest mismatch")
	// ErrSizeMismatch is returned when content length differs from its descriptor.
	ErrSizeMismatch = errors.New("size mismatch")
)

// Path returns where the blob for d lives under root:
// <root>/blobs/<algorithm>/<hex>. It performs no I/O.
func Path(root string, d digest.Digest) string {
	alg, encoded, _ := strings.Cut(string(d), ":")
	return filepath.Join(root, ocispec.ImageBlobsDir, alg, encoded)
}

// Put stores data under its digest d. The content is hashed first and must
// match d. Writing a digest that already exists rewrites identical bytes.
func Put(root string, d digest.Digest, data []byte) error {
	if _, err := ParseDigest(string(d)); err != nil {
		return err
	}
	got, err := FromBytes(d.Algorithm(), data)
	if err != nil {
		return err
	}
	if got != d {
		return fmt.Errorf("%w: storing %s but content hashes to %s", ErrDigestMismatch, d, got)
	}

	path := Path(root, d)
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("creating blob directory: %w", err)
	}
	if err := WriteFileAtomic(path, data, FilePerm); err != nil {
		return fmt.Errorf("writing blob %s: %w", d, err)
	}
	return nil
}

// Get returns the content stored for d.
func Get(root string, d digest.Digest) ([]byte, error) {
	data, err := os.ReadFile(Path(root, d))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, d)
		}
		return nil, fmt.Errorf("reading blob %s: %w", d, err)
	}
	return data, nil
}

// Open returns a reader over the blob for d. Use VerifyReader to check the
// content while streaming.
func Open(root string, d digest.Digest) (io.ReadCloser, error) {
	f, err := os.Open(Path(root, d))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, d)
		}
		return nil, fmt.Errorf("opening blob %s: %w", d, err)
	}
	return f, nil
}

// Check streams the stored blob for d and verifies its digest and, when
// size is not negative, its length.
func Check(root string, d digest.Digest, size int64) error {
	rc, err := Open(root, d)
	if err != nil {
		return err
	}
	defer rc.Close()

	vr, err := VerifyReader(rc, d, size)
	if err != nil {
		return err
	}
	if _, err := io.Copy(io.Discard, vr); err != nil {
		return err
	}
	return nil
}

// List returns the digests of every blob stored under root, grouped by
// algorithm directory and sorted by name. Temporary files and entries that
// are not valid digests are skipped.
func List(root string) ([]digest.Digest, error) {
	base := filepath.Join(root, ocispec.ImageBlobsDir)
	algDirs, err := os.ReadDir(base)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", base, err)
	}

	var digests []digest.Digest
	for _, algDir := range algDirs {
		if !algDir.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(base, algDir.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", algDir.Name(), err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			d, err := ParseDigest(algDir.Name() + ":" + entry.Name())
			if err != nil {
				continue
			}
			digests = append(digests, d)
		}
	}
	return digests, nil
}
