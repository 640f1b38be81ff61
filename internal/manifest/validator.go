package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/lo"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/manifest.schema.json
var schemaBytes []byte

const schemaName = "manifest.schema.json"

var (
	printer = message.NewPrinter(language.English)

	// getSchema compiles the embedded schema on first use.
	getSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			return nil, fmt.Errorf("unmarshaling schema JSON: %w", err)
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaName, doc); err != nil {
			return nil, fmt.Errorf("adding schema resource: %w", err)
		}
		sch, err := c.Compile(schemaName)
		if err != nil {
			return nil, fmt.Errorf("compiling schema: %w", err)
		}
		return sch, nil
	})
)

// ValidationResult is the outcome of checking one manifest.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is one problem found in a manifest.
type ValidationIssue struct {
	Path    string // e.g. "/icons/0/size"
	Message string
	Keyword string // failing schema keyword, or "semver"
}

func (i ValidationIssue) key() string { return i.Path + "|" + i.Keyword + "|" + i.Message }

// Validate checks raw YAML against the manifest schema and that version is
// a semantic version. The error is reserved for unreadable input; problems
// with the manifest itself are reported as issues.
func Validate(data []byte) (*ValidationResult, error) {
	sch, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	doc, inst, err := decodeInstance(data)
	if err != nil {
		return nil, err
	}

	var issues []ValidationIssue
	if err := sch.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("validating manifest: %w", err)
		}
		issues = schemaIssues(ve)
	}
	if is, bad := versionIssue(doc, issues); bad {
		issues = append(issues, is)
	}
	return &ValidationResult{Valid: len(issues) == 0, Issues: issues}, nil
}

// ValidateFile reads path and validates it.
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(data)
}

// decodeInstance parses YAML and re-reads it as JSON, which gives the
// validator json.Number values instead of YAML ints and floats.
func decodeInstance(data []byte) (map[string]any, any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(buf))
	if err != nil {
		return nil, nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}
	return doc, inst, nil
}

// versionIssue applies semver on top of the schema's loose pattern. It stays
// quiet when the schema already flagged /version.
func versionIssue(doc map[string]any, prior []ValidationIssue) (ValidationIssue, bool) {
	v, ok := doc["version"].(string)
	if !ok || slices.ContainsFunc(prior, func(i ValidationIssue) bool { return i.Path == "/version" }) {
		return ValidationIssue{}, false
	}
	if _, err := semver.NewVersion(v); err == nil {
		return ValidationIssue{}, false
	}
	return ValidationIssue{
		Path:    "/version",
		Message: printer.Sprintf("%q is not a semantic version", v),
		Keyword: "semver",
	}, true
}

// schemaIssues flattens the error tree into its leaves.
func schemaIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	leaves := lo.UniqBy(leafIssues(ve), ValidationIssue.key)
	if len(leaves) == 0 {
		return []ValidationIssue{{Message: ve.Error()}}
	}
	return leaves
}

func leafIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	if len(ve.Causes) > 0 {
		return lo.FlatMap(ve.Causes, func(c *jsonschema.ValidationError, _ int) []ValidationIssue {
			return leafIssues(c)
		})
	}
	if ve.ErrorKind == nil {
		return nil
	}
	kw := lo.LastOrEmpty(ve.ErrorKind.KeywordPath())
	if kw == "" || kw == "$ref" {
		return nil
	}
	var path string
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	return []ValidationIssue{{
		Path:    path,
		Message: ve.ErrorKind.LocalizedString(printer),
		Keyword: kw,
	}}
}
