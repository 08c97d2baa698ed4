package layer

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// epoch is the modification time written for every entry, so archives do
// not depend on when files were last touched.
var epoch = time.Unix(0, 0).UTC()

// Options controls what Build puts in a layer.
type Options struct {
	// ExcludeRoot is skipped along with everything beneath it. It is
	// normally the package output directory, which may sit inside the
	// source tree.
	ExcludeRoot string

	// Ignore lists base names (files or directories) skipped anywhere in
	// the tree, e.g. ".git".
	Ignore []string

	Compression Compression
}

// Layer is a built layer blob.
type Layer struct {
	Data      []byte
	MediaType string
	// Entries are the archived paths, slash-separated and relative to the
	// source root, in archive order.
	Entries []string
}

// Build walks sourceRoot in lexical order and archives every regular file
// under its path relative to sourceRoot. Directories are implied by entry
// paths; symlinks and special files are skipped, never followed. The
// result is byte-for-byte reproducible for an unchanged tree.
func Build(sourceRoot string, opts Options) (*Layer, error) {
	src, err := ResolvePath(sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving source %s: %w", sourceRoot, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", sourceRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", sourceRoot)
	}

	var exclude string
	if opts.ExcludeRoot != "" {
		exclude, err = ResolvePath(opts.ExcludeRoot)
		if err != nil {
			return nil, fmt.Errorf("resolving excluded path %s: %w", opts.ExcludeRoot, err)
		}
	}

	ignored := make(map[string]bool, len(opts.Ignore))
	for _, name := range opts.Ignore {
		ignored[name] = true
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	var entries []string

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == src {
			return nil
		}
		if Excluded(path, exclude) || ignored[d.Name()] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if err := addFile(tw, path, name); err != nil {
			return err
		}
		entries = append(entries, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archiving %s: %w", sourceRoot, err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("finishing layer archive: %w", err)
	}

	c := opts.Compression
	if c == "" {
		c = CompressionNone
	}
	data, err := compress(buf.Bytes(), c)
	if err != nil {
		return nil, err
	}

	return &Layer{
		Data:      data,
		MediaType: c.MediaType(),
		Entries:   entries,
	}, nil
}

// addFile writes one regular file with normalized header fields.
func addFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     int64(info.Mode().Perm()),
		Size:     info.Size(),
		ModTime:  epoch,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header for %s: %w", name, err)
	}
	if _, err := io.CopyN(tw, f, info.Size()); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	return nil
}
