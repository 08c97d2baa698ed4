package cli

import (
	"fmt"

	"github.com/adp-labs/adpkg/internal/adpkg"
	"github.com/adp-labs/adpkg/internal/blobstore"
	"github.com/adp-labs/adpkg/internal/config"
	"github.com/adp-labs/adpkg/internal/layer"
)

// newPackager builds a Packager from settings, after command flags have
// been applied to them.
func newPackager(s config.Settings) (*adpkg.Packager, error) {
	alg, err := blobstore.ParseAlgorithm(s.DigestAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("digest algorithm: %w", err)
	}
	comp, err := layer.ParseCompression(s.LayerCompression)
	if err != nil {
		return nil, fmt.Errorf("layer compression: %w", err)
	}
	return adpkg.New(
		adpkg.WithAlgorithm(alg),
		adpkg.WithCompression(comp),
		adpkg.WithIgnore(s.Ignore...),
		adpkg.WithSchemaCheck(s.SchemaCheck),
		adpkg.WithVerify(s.VerifyDigests),
		adpkg.WithLogger(logger),
	), nil
}

// noVerify is shared by every command that reads a package.
var noVerify bool

func readSettings() config.Settings {
	s := config.Current()
	if noVerify {
		s.VerifyDigests = false
	}
	return s
}
