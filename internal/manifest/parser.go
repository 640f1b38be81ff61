package manifest

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// Parse decodes manifest YAML without schema validation. Type defaults to
// "extension" when omitted.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Type == "" {
		m.Type = TypeExtension
	}
	return &m, nil
}

// ParseFile reads, validates and parses the manifest at path. Schema
// violations are returned as a *InvalidError.
func ParseFile(path string) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating manifest %s: %w", path, err)
	}
	if !result.Valid {
		return nil, &InvalidError{Path: path, Issues: result.Issues}
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseVersion parses the manifest version as a semantic version.
func (m *Manifest) ParseVersion() (*semver.Version, error) {
	v, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", m.Version, err)
	}
	return v, nil
}

// InvalidError reports a manifest that failed schema validation.
type InvalidError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *InvalidError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("invalid manifest %s", e.Path)
	}
	first := e.Issues[0]
	loc := first.Path
	if loc == "" {
		loc = "/"
	}
	if len(e.Issues) == 1 {
		return fmt.Sprintf("invalid manifest %s: %s: %s", e.Path, loc, first.Message)
	}
	return fmt.Sprintf("invalid manifest %s: %s: %s (and %d more)", e.Path, loc, first.Message, len(e.Issues)-1)
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
