package layer

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrEntryNotFound is returned when a layer has no entry with the
	// requested path.
	ErrEntryNotFound = errors.New("entry not found in layer")
	// ErrUnsafePath is returned when an entry would extract outside the
	// destination directory.
	ErrUnsafePath = errors.New("unsafe entry path")
)

// Entry describes one file in a layer.
type Entry struct {
	Name string
	Size int64
	Mode int64
}

// ReadEntry scans the tar stream r entry by entry and returns the content
// of the regular file at name. Nothing is written to disk. Scanning stops
// at the first match.
func ReadEntry(r io.Reader, name string) ([]byte, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("reading layer entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || cleanName(hdr.Name) != name {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("reading %s from layer: %w", name, err)
		}
		return data, nil
	}
}

// List returns the regular-file entries of the tar stream r in archive order.
func List(r io.Reader) ([]Entry, error) {
	tr := tar.NewReader(r)
	var entries []Entry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading layer entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		entries = append(entries, Entry{
			Name: cleanName(hdr.Name),
			Size: hdr.Size,
			Mode: hdr.Mode,
		})
	}
}

// Extract writes every regular file of the tar stream r below dest and
// returns the extracted entry names. Entries with absolute paths or ".."
// components are rejected with ErrUnsafePath before anything is written
// for them. Other entry types are skipped.
func Extract(r io.Reader, dest string) ([]string, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dest, err)
	}

	tr := tar.NewReader(r)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return names, fmt.Errorf("reading layer entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name := cleanName(hdr.Name)
		local := filepath.FromSlash(name)
		if !filepath.IsLocal(local) {
			return names, fmt.Errorf("%w: %q", ErrUnsafePath, hdr.Name)
		}

		target := filepath.Join(dest, local)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return names, fmt.Errorf("creating directory for %s: %w", name, err)
		}
		if err := writeEntry(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
			return names, fmt.Errorf("extracting %s: %w", name, err)
		}
		names = append(names, name)
	}
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// cleanName normalizes an archive path ("./adp/agent.yaml" -> "adp/agent.yaml").
func cleanName(name string) string {
	return path.Clean(strings.TrimPrefix(name, "./"))
}
