package definition

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// ParseError reports definition bytes that are not a well-formed definition.
type ParseError struct {
	Path string // empty when parsing bytes that did not come from a file
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parsing definition %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("parsing definition: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes YAML definition bytes. It does not apply validation rules;
// see Validate and ValidateSchema.
func Parse(data []byte) (*Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Err: errors.New("document is empty")}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &def, nil
}

// Load reads and parses the definition file at path.
func Load(path string) (*Definition, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	def, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return def, nil
}

// Marshal encodes def as YAML.
func Marshal(def *Definition) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return nil, fmt.Errorf("encoding definition: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding definition: %w", err)
	}
	return buf.Bytes(), nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
