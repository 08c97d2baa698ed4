package layer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression selects how the layer tarball is encoded.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// Layer media types. The uncompressed form is the package default.
const (
	MediaTypeTar     = "application/vnd.adp.package.v1+tar"
	MediaTypeTarGzip = MediaTypeTar + "+gzip"
	MediaTypeTarZstd = MediaTypeTar + "+zstd"
)

// ParseCompression resolves a compression name. An empty name means none.
func ParseCompression(name string) (Compression, error) {
	switch Compression(strings.ToLower(strings.TrimSpace(name))) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip:
		return CompressionGzip, nil
	case CompressionZstd:
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unknown layer compression %q (want none, gzip or zstd)", name)
	}
}

// MediaType returns the layer media type for c.
func (c Compression) MediaType() string {
	switch c {
	case CompressionGzip:
		return MediaTypeTarGzip
	case CompressionZstd:
		return MediaTypeTarZstd
	default:
		return MediaTypeTar
	}
}

// CompressionFor maps a layer media type back to its compression.
func CompressionFor(mediaType string) (Compression, error) {
	switch mediaType {
	case MediaTypeTar:
		return CompressionNone, nil
	case MediaTypeTarGzip:
		return CompressionGzip, nil
	case MediaTypeTarZstd:
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unsupported layer media type %q", mediaType)
	}
}

// compress encodes a finished tarball. Both encoders are configured so the
// same input always yields the same output.
func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case "", CompressionNone:
		return data, nil

	case CompressionGzip:
		var buf bytes.Buffer
		gw, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("creating gzip writer: %w", err)
		}
		if _, err := gw.Write(data); err != nil {
			return nil, fmt.Errorf("gzip compressing layer: %w", err)
		}
		if err := gw.Close(); err != nil {
			return nil, fmt.Errorf("closing gzip writer: %w", err)
		}
		return buf.Bytes(), nil

	case CompressionZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil

	default:
		return nil, fmt.Errorf("unsupported layer compression %q", c)
	}
}

// NewReader returns the uncompressed tar stream of a layer blob read from r,
// choosing the decoder from the layer's media type.
func NewReader(r io.Reader, mediaType string) (io.ReadCloser, error) {
	c, err := CompressionFor(mediaType)
	if err != nil {
		return nil, err
	}

	switch c {
	case CompressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gr, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return dec.IOReadCloser(), nil
	default:
		return io.NopCloser(r), nil
	}
}
