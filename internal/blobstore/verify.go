package blobstore

import (
	"fmt"
	"hash"
	"io"

	"github.com/opencontainers/go-digest"
)

type verifyingReader struct {
	r    io.Reader
	h    hash.Hash
	want digest.Digest
	size int64
	n    int64
}

// VerifyReader wraps r so that reaching EOF checks the bytes read against
// want, and against size when size is not negative. A mismatch replaces
// io.EOF with ErrDigestMismatch or ErrSizeMismatch. Callers that stop
// reading early must drain the reader to get the check.
func VerifyReader(r io.Reader, want digest.Digest, size int64) (io.Reader, error) {
	if _, err := ParseDigest(string(want)); err != nil {
		return nil, err
	}
	h, err := NewHasher(want.Algorithm())
	if err != nil {
		return nil, err
	}
	return &verifyingReader{r: r, h: h, want: want, size: size}, nil
}

func (v *verifyingReader) Read(p []byte) (int, error) {
	n, err := v.r.Read(p)
	if n > 0 {
		v.h.Write(p[:n])
		v.n += int64(n)
		if v.size >= 0 && v.n > v.size {
			return n, fmt.Errorf("%w: %s: more than %d bytes", ErrSizeMismatch, v.want, v.size)
		}
	}
	if err == io.EOF {
		if v.size >= 0 && v.n != v.size {
			return n, fmt.Errorf("%w: %s: got %d bytes, want %d", ErrSizeMismatch, v.want, v.n, v.size)
		}
		if got := sumDigest(v.want.Algorithm(), v.h); got != v.want {
			return n, fmt.Errorf("%w: content hashes to %s, want %s", ErrDigestMismatch, got, v.want)
		}
	}
	return n, err
}
