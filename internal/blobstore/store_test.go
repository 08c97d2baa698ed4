package blobstore

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
)

func TestPath(t *testing.T) {
	d := Sum([]byte("hello"))
	got := Path("/pkg", d)
	want := filepath.Join("/pkg", "blobs", "sha256", d.Encoded())
	if got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}

func TestPutGet(t *testing.T) {
	root := t.TempDir()
	data := []byte(`{"agent_id":"agent.test"}`)

	for _, alg := range Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			d, err := FromBytes(alg, data)
			if err != nil {
				t.Fatal(err)
			}
			if err := Put(root, d, data); err != nil {
				t.Fatalf("Put error: %v", err)
			}
			if _, err := os.Stat(filepath.Join(root, "blobs", string(alg), d.Encoded())); err != nil {
				t.Fatalf("blob file missing: %v", err)
			}
			got, err := Get(root, d)
			if err != nil {
				t.Fatalf("Get error: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("Get = %q, want %q", got, data)
			}
		})
	}
}

func TestPut_Idempotent(t *testing.T) {
	root := t.TempDir()
	data := []byte("same bytes")
	d := Sum(data)

	for i := 0; i < 2; i++ {
		if err := Put(root, d, data); err != nil {
			t.Fatalf("Put #%d error: %v", i+1, err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(root, "blobs", "sha256"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 blob file, got %d", len(entries))
	}
}

func TestPut_RejectsWrongDigest(t *testing.T) {
	root := t.TempDir()
	err := Put(root, Sum([]byte("one")), []byte("two"))
	if !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("expected ErrDigestMismatch, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "blobs")); !os.IsNotExist(statErr) {
		t.Errorf("blobs directory should not exist after a rejected Put")
	}
}

func TestPut_RejectsMalformedDigest(t *testing.T) {
	if err := Put(t.TempDir(), digest.Digest("nonsense"), []byte("x")); err == nil {
		t.Fatal("expected error for malformed digest")
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := Get(t.TempDir(), Sum([]byte("absent")))
	if !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected error to wrap fs.ErrNotExist")
	}
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(t.TempDir(), Sum([]byte("absent")))
	if !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	root := t.TempDir()
	data := []byte("layer bytes")
	d := Sum(data)
	if err := Put(root, d, data); err != nil {
		t.Fatal(err)
	}

	if err := Check(root, d, int64(len(data))); err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if err := Check(root, d, -1); err != nil {
		t.Fatalf("Check with unknown size error: %v", err)
	}
	if err := Check(root, d, int64(len(data))+1); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}

	// Corrupt the stored file in place.
	if err := os.WriteFile(Path(root, d), []byte("tampered!!!"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Check(root, d, -1); !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("expected ErrDigestMismatch, got %v", err)
	}
}

func TestVerifyReader_PassesThroughContent(t *testing.T) {
	data := []byte("stream me")
	vr, err := VerifyReader(bytes.NewReader(data), Sum(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(vr)
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("read %q, want %q", got, data)
	}
}

func TestVerifyReader_Mismatch(t *testing.T) {
	vr, err := VerifyReader(bytes.NewReader([]byte("actual")), Sum([]byte("expected")), -1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadAll(vr); !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("expected ErrDigestMismatch, got %v", err)
	}
}

func TestList(t *testing.T) {
	root := t.TempDir()

	if got, err := List(root); err != nil || got != nil {
		t.Fatalf("List on empty root = %v, %v; want nil, nil", got, err)
	}

	var want []digest.Digest
	for _, s := range []string{"a", "b", "c"} {
		d := Sum([]byte(s))
		if err := Put(root, d, []byte(s)); err != nil {
			t.Fatal(err)
		}
		want = append(want, d)
	}
	b3, _ := FromBytes(BLAKE3, []byte("d"))
	if err := Put(root, b3, []byte("d")); err != nil {
		t.Fatal(err)
	}

	// Leftovers that are not blobs.
	os.WriteFile(filepath.Join(root, "blobs", "sha256", ".tmp-123"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(root, "blobs", "sha256", "not-a-digest"), []byte("x"), 0644)

	got, err := List(root)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("List returned %d digests, want 4: %v", len(got), got)
	}
	seen := make(map[digest.Digest]bool)
	for _, d := range got {
		seen[d] = true
	}
	for _, d := range append(want, b3) {
		if !seen[d] {
			t.Errorf("List missing %s", d)
		}
	}
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	if err := WriteFileAtomic(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}
