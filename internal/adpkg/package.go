package adpkg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/adp-labs/adpkg/internal/blobstore"
	"github.com/adp-labs/adpkg/internal/definition"
	"github.com/adp-labs/adpkg/internal/layer"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog"
)

// Validator is the gate a definition must pass before anything is written.
type Validator func(*definition.Definition) error

// Packager creates and reads agent packages.
type Packager struct {
	algorithm   digest.Algorithm
	compression layer.Compression
	ignore      []string
	validate    Validator
	schemaCheck bool
	verify      bool
	logger      zerolog.Logger
}

// Option configures a Packager.
type Option func(*Packager)

// WithAlgorithm sets the digest algorithm used for new blobs.
func WithAlgorithm(alg digest.Algorithm) Option {
	return func(p *Packager) {
		p.algorithm = alg
	}
}

// WithCompression sets the layer compression.
func WithCompression(c layer.Compression) Option {
	return func(p *Packager) {
		p.compression = c
	}
}

// WithIgnore skips files and directories with these base names anywhere in
// the source tree.
func WithIgnore(names ...string) Option {
	return func(p *Packager) {
		p.ignore = append(p.ignore, names...)
	}
}

// WithValidator replaces definition.Validate as the validation gate.
func WithValidator(v Validator) Option {
	return func(p *Packager) {
		if v != nil {
			p.validate = v
		}
	}
}

// WithSchemaCheck also checks the raw definition against the JSON schema
// before the validation gate runs.
func WithSchemaCheck(enabled bool) Option {
	return func(p *Packager) {
		p.schemaCheck = enabled
	}
}

// WithVerify controls whether blobs are hashed and size-checked against their
// descriptors while being read. It is on by default.
func WithVerify(enabled bool) Option {
	return func(p *Packager) {
		p.verify = enabled
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Packager) {
		p.logger = l
	}
}

// New returns a Packager using sha256, an uncompressed layer, and
// definition.Validate, with read verification on.
func New(opts ...Option) *Packager {
	p := &Packager{
		algorithm:   digest.Canonical,
		compression: layer.CompressionNone,
		validate:    definition.Validate,
		verify:      true,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result describes a package written by Create.
type Result struct {
	Root       string
	Manifest   ocispec.Descriptor // as listed in the index, with annotations
	Config     ocispec.Descriptor
	Layer      ocispec.Descriptor
	Entries    []string
	Definition *definition.Definition
}

// Create packages the agent project at sourceRoot into an OCI image layout
// at outputRoot. outputRoot may sit inside sourceRoot; it is never archived.
//
// Nothing under outputRoot is touched until the definition has been parsed
// and validated and the layer has been built. If a later write fails, any
// index.json and oci-layout are removed so no readable package is left.
func (p *Packager) Create(sourceRoot, outputRoot string) (*Result, error) {
	log := p.logger.With().Str("source", sourceRoot).Str("output", outputRoot).Logger()

	if _, err := blobstore.NewHasher(p.algorithm); err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Err: err}
	}
	if _, err := layer.ParseCompression(string(p.compression)); err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Err: err}
	}

	src, err := layer.ResolvePath(sourceRoot)
	if err != nil {
		return nil, pathError(KindIOError, sourceRoot, err)
	}
	out, err := layer.ResolvePath(outputRoot)
	if err != nil {
		return nil, pathError(KindIOError, outputRoot, err)
	}
	if layer.Excluded(src, out) {
		return nil, pathError(KindInvalidArgument, outputRoot,
			errors.New("output directory must not be the source directory or one of its parents"))
	}

	def, err := p.loadDefinition(sourceRoot, src)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("id", def.ID).Str("adp_version", def.ADPVersion).Msg("definition validated")

	lyr, err := layer.Build(src, layer.Options{
		ExcludeRoot: out,
		Ignore:      p.ignore,
		Compression: p.compression,
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pathError(KindSourceNotFound, sourceRoot, err)
		}
		return nil, pathError(KindIOError, sourceRoot, err)
	}
	if !slices.Contains(lyr.Entries, DefinitionPath) {
		return nil, pathError(KindSourceNotFound, filepath.Join(sourceRoot, filepath.FromSlash(DefinitionPath)),
			errors.New("definition is not a regular file or is ignored"))
	}
	log.Debug().Int("entries", len(lyr.Entries)).Str("media_type", lyr.MediaType).Msg("layer built")

	config, err := buildConfig(p.algorithm, def.ID, def.ADPVersion)
	if err != nil {
		return nil, &Error{Kind: KindIOError, Err: err}
	}
	layerBlob, err := newBlob(p.algorithm, lyr.MediaType, lyr.Data)
	if err != nil {
		return nil, &Error{Kind: KindIOError, Err: err}
	}
	manifest, err := buildManifest(p.algorithm, config.desc, layerBlob.desc)
	if err != nil {
		return nil, &Error{Kind: KindIOError, Err: err}
	}
	index, err := buildIndex(manifest.desc, def.ID)
	if err != nil {
		return nil, &Error{Kind: KindIOError, Err: err}
	}
	marker, err := buildLayoutMarker()
	if err != nil {
		return nil, &Error{Kind: KindIOError, Err: err}
	}

	if err := p.write(out, []blob{config, layerBlob, manifest}, index, marker); err != nil {
		_ = removeEntryPoints(out)
		return nil, err
	}

	listed := manifest.desc
	listed.Annotations = map[string]string{ocispec.AnnotationTitle: def.ID}
	log.Info().
		Str("id", def.ID).
		Str("manifest", manifest.desc.Digest.String()).
		Int64("layer_size", layerBlob.desc.Size).
		Msg("package created")

	return &Result{
		Root:       outputRoot,
		Manifest:   listed,
		Config:     config.desc,
		Layer:      layerBlob.desc,
		Entries:    lyr.Entries,
		Definition: def,
	}, nil
}

// loadDefinition reads, parses and validates the definition under src.
// sourceRoot is the caller's spelling of src, used in errors.
func (p *Packager) loadDefinition(sourceRoot, src string) (*definition.Definition, error) {
	display := filepath.Join(sourceRoot, filepath.FromSlash(DefinitionPath))

	raw, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(DefinitionPath)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pathError(KindSourceNotFound, display, err)
		}
		return nil, pathError(KindIOError, display, err)
	}

	if p.schemaCheck {
		res, err := definition.ValidateSchema(raw)
		if err != nil {
			var pe *definition.ParseError
			if errors.As(err, &pe) {
				return nil, pathError(KindParseError, display, err)
			}
			return nil, pathError(KindIOError, display, err)
		}
		if err := res.Err(); err != nil {
			return nil, pathError(KindValidationError, display, err)
		}
	}

	def, err := definition.Parse(raw)
	if err != nil {
		return nil, pathError(KindParseError, display, err)
	}
	if err := p.validate(def); err != nil {
		return nil, pathError(KindValidationError, display, err)
	}
	return def, nil
}

// write stores blobs, then the index, then the layout marker.
func (p *Packager) write(out string, blobs []blob, index, marker []byte) error {
	// A stale entry point must not outlive a failed rewrite.
	if err := removeEntryPoints(out); err != nil {
		return pathError(KindIOError, out, err)
	}
	if err := os.MkdirAll(out, blobstore.DirPerm); err != nil {
		return pathError(KindIOError, out, err)
	}

	for _, b := range blobs {
		if err := blobstore.Put(out, b.desc.Digest, b.data); err != nil {
			return &Error{Kind: KindIOError, Path: blobstore.Path(out, b.desc.Digest), Digest: b.desc.Digest, Err: err}
		}
		p.logger.Debug().Str("digest", b.desc.Digest.String()).Str("media_type", b.desc.MediaType).Msg("blob written")
	}

	indexPath := filepath.Join(out, IndexFile)
	if err := blobstore.WriteFileAtomic(indexPath, index, blobstore.FilePerm); err != nil {
		return pathError(KindIOError, indexPath, err)
	}
	markerPath := filepath.Join(out, LayoutFile)
	if err := blobstore.WriteFileAtomic(markerPath, marker, blobstore.FilePerm); err != nil {
		return pathError(KindIOError, markerPath, err)
	}
	return nil
}

// removeEntryPoints deletes index.json and oci-layout under out, leaving
// blobs in place.
func removeEntryPoints(out string) error {
	for _, name := range []string{IndexFile, LayoutFile} {
		if err := os.Remove(filepath.Join(out, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stale %s: %w", name, err)
		}
	}
	return nil
}

// Create packages sourceRoot into outputRoot with default options.
func Create(sourceRoot, outputRoot string) (*Result, error) {
	return New().Create(sourceRoot, outputRoot)
}

// Open reads the agent definition from the package at root with default
// options.
func Open(root string) (*definition.Definition, error) {
	return New().Open(root)
}

// BlobPath returns where the blob for d is stored under root. Writers and
// readers both resolve blobs through it.
func BlobPath(root string, d digest.Digest) string {
	return blobstore.Path(root, d)
}
