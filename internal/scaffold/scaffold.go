package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/agentx-labs/extswitch/internal/extension"
	"github.com/agentx-labs/extswitch/internal/manifest"
)

//go:embed scaffolds
var scaffoldFS embed.FS

// ScaffoldData holds all template variables available to scaffold templates.
type ScaffoldData struct {
	ID          string // directory name, e.g. "dark-reader"
	Name        string // display name, e.g. "Dark Reader"
	Type        string // manifest type
	Description string
	Author      string
	Version     string // semver, e.g. "0.1.0"
	MayDisable  bool
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

// NewScaffoldData creates a ScaffoldData with defaults filled in. An empty
// name is derived from the id.
func NewScaffoldData(id, name, typeName string) *ScaffoldData {
	if typeName == "" {
		typeName = manifest.TypeExtension
	}
	if name == "" {
		name = titleFromID(id)
	}
	return &ScaffoldData{
		ID:          id,
		Name:        name,
		Type:        typeName,
		Description: fmt.Sprintf("%s %s", name, typeName),
		Version:     "0.1.0",
		MayDisable:  true,
	}
}

// titleFromID turns "dark-reader" into "Dark Reader".
func titleFromID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' || r == '.' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Generate creates <root>/<id> from the template set for data.Type. The
// generated manifest is validated; problems come back as warnings.
func Generate(root string, data *ScaffoldData) (*Result, error) {
	if data.ID == "" || data.ID != filepath.Base(data.ID) || strings.HasPrefix(data.ID, ".") {
		return nil, fmt.Errorf("invalid extension id %q", data.ID)
	}
	templatesDir := "scaffolds/" + data.Type

	// Verify template set exists in embedded FS.
	entries, err := fs.ReadDir(scaffoldFS, templatesDir)
	if err != nil {
		return nil, fmt.Errorf("no template for type %q: %w", data.Type, err)
	}

	outputDir := filepath.Join(root, data.ID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// Check for existing files to prevent accidental overwrites.
	existingEntries, err := os.ReadDir(outputDir)
	if err == nil && len(existingEntries) > 0 {
		return nil, fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}

	result := &Result{
		OutputDir: outputDir,
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		tmplPath := templatesDir + "/" + entry.Name()
		tmplBytes, err := fs.ReadFile(scaffoldFS, tmplPath)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", tmplPath, err)
		}

		outName := strings.TrimSuffix(entry.Name(), ".tmpl")
		outPath := filepath.Join(outputDir, outName)

		tmpl, err := template.New(entry.Name()).Parse(string(tmplBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template %s: %w", entry.Name(), err)
		}

		if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", outPath, err)
		}

		result.Files = append(result.Files, outName)
	}

	// Validate the generated manifest against JSON Schema.
	manifestFile := filepath.Join(outputDir, extension.ManifestFile)
	valResult, valErr := manifest.ValidateFile(manifestFile)
	if valErr != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not validate manifest: %v", valErr))
	} else if !valResult.Valid {
		for _, issue := range valResult.Issues {
			msg := issue.Message
			if issue.Path != "" {
				msg = issue.Path + ": " + msg
			}
			result.Warnings = append(result.Warnings, msg)
		}
	}

	return result, nil
}
