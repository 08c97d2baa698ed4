package blobstore

import (
	"errors"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
)

func TestFromBytes_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		alg  digest.Algorithm
		data string
		want string
	}{
		{"sha256 empty", digest.SHA256, "", "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"sha256 hello", digest.SHA256, "hello", "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		{"blake3 empty", BLAKE3, "", "blake3:af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromBytes(tt.alg, []byte(tt.data))
			if err != nil {
				t.Fatalf("FromBytes error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("FromBytes = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFromBytes_Deterministic(t *testing.T) {
	for _, alg := range Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			a, err := FromBytes(alg, []byte("agent definition"))
			if err != nil {
				t.Fatal(err)
			}
			b, err := FromBytes(alg, []byte("agent definition"))
			if err != nil {
				t.Fatal(err)
			}
			if a != b {
				t.Errorf("digests differ: %s vs %s", a, b)
			}
			if !strings.HasPrefix(string(a), string(alg)+":") {
				t.Errorf("digest %s does not carry algorithm %s", a, alg)
			}
			if _, err := ParseDigest(string(a)); err != nil {
				t.Errorf("ParseDigest(%s) error: %v", a, err)
			}
		})
	}
}

func TestFromBytes_UnsupportedAlgorithm(t *testing.T) {
	_, err := FromBytes("md5", []byte("x"))
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestSum_MatchesSHA256(t *testing.T) {
	got := Sum([]byte("hello"))
	want, _ := FromBytes(digest.SHA256, []byte("hello"))
	if got != want {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    digest.Algorithm
		wantErr bool
	}{
		{"", digest.SHA256, false},
		{"sha256", digest.SHA256, false},
		{"SHA512", digest.SHA512, false},
		{" blake3 ", BLAKE3, false},
		{"md5", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAlgorithm(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAlgorithm(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAlgorithm(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDigest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no separator", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"empty hex", "sha256:"},
		{"short hex", "sha256:abc"},
		{"uppercase hex", "sha256:E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855"},
		{"path traversal", "sha256:../../etc/passwd"},
		{"blake3 short", "blake3:af13"},
		{"unknown algorithm", "md5:d41d8cd98f00b204e9800998ecf8427e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDigest(tt.in); err == nil {
				t.Errorf("ParseDigest(%q) expected error", tt.in)
			}
		})
	}
}

func TestNewHasher_MatchesFromBytes(t *testing.T) {
	data := []byte("streamed content")
	for _, alg := range Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			h, err := NewHasher(alg)
			if err != nil {
				t.Fatal(err)
			}
			h.Write(data[:5])
			h.Write(data[5:])
			want, _ := FromBytes(alg, data)
			if got := sumDigest(alg, h); got != want {
				t.Errorf("streamed digest = %s, want %s", got, want)
			}
		})
	}
}
