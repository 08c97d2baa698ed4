package blobstore

import (
	// Register the hash implementations go-digest resolves through crypto.Hash.
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"regexp"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
)

// BLAKE3 is the OCI-registered identifier for BLAKE3-256 digests.
// go-digest does not ship it, so it is hashed with zeebo/blake3 here.
const BLAKE3 digest.Algorithm = "blake3"

// Algorithms lists every digest algorithm a package can be built with.
// The first entry is the default.
var Algorithms = []digest.Algorithm{digest.SHA256, digest.SHA512, BLAKE3}

var (
	// ErrInvalidDigest is returned for strings that are not <algorithm>:<hex>.
	ErrInvalidDigest = errors.New("invalid digest")
	// ErrUnsupportedAlgorithm is returned for algorithms outside Algorithms.
	ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")
)

var blake3Encoded = regexp.MustCompile(`^[a-f0-9]{64}$`)

// ParseAlgorithm resolves a user-supplied algorithm name. An empty name
// selects the canonical algorithm (sha256).
func ParseAlgorithm(name string) (digest.Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return digest.Canonical, nil
	}
	for _, alg := range Algorithms {
		if string(alg) == name {
			return alg, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
}

// NewHasher returns a streaming hash for alg.
func NewHasher(alg digest.Algorithm) (hash.Hash, error) {
	switch alg {
	case BLAKE3:
		return blake3.New(), nil
	case digest.SHA256, digest.SHA512:
		return alg.Hash(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

// FromBytes computes the digest of data under alg.
func FromBytes(alg digest.Algorithm, data []byte) (digest.Digest, error) {
	switch alg {
	case BLAKE3:
		sum := blake3.Sum256(data)
		return digest.NewDigestFromEncoded(BLAKE3, hex.EncodeToString(sum[:])), nil
	case digest.SHA256, digest.SHA512:
		return alg.FromBytes(data), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

// Sum computes the canonical (sha256) digest of data. It never fails.
func Sum(data []byte) digest.Digest {
	return digest.Canonical.FromBytes(data)
}

// ParseDigest validates s as <algorithm>:<hex> for a supported algorithm.
// A parsed digest is safe to turn into a path: the encoded part is
// lowercase hex only.
func ParseDigest(s string) (digest.Digest, error) {
	alg, encoded, ok := strings.Cut(s, ":")
	if !ok || alg == "" || encoded == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidDigest, s)
	}

	d := digest.Digest(s)
	switch digest.Algorithm(alg) {
	case BLAKE3:
		if !blake3Encoded.MatchString(encoded) {
			return "", fmt.Errorf("%w: %q", ErrInvalidDigest, s)
		}
		return d, nil
	case digest.SHA256, digest.SHA512:
		if err := d.Validate(); err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidDigest, s, err)
		}
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

// sumDigest turns a finished hash into a digest for alg.
func sumDigest(alg digest.Algorithm, h hash.Hash) digest.Digest {
	return digest.NewDigestFromEncoded(alg, hex.EncodeToString(h.Sum(nil)))
}
