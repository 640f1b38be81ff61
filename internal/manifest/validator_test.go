package manifest

import (
	"testing"
)

func TestValidateFile_ValidManifests(t *testing.T) {
	validFiles := []string{
		"valid-full.yaml",
		"valid-minimal.yaml",
		"valid-theme.yaml",
	}

	for _, file := range validFiles {
		t.Run(file, func(t *testing.T) {
			result, err := ValidateFile(testPath(file))
			if err != nil {
				t.Fatalf("ValidateFile(%s) error: %v", file, err)
			}
			if !result.Valid {
				t.Errorf("expected valid, got invalid with %d issues:", len(result.Issues))
				for _, issue := range result.Issues {
					t.Errorf("  path=%s keyword=%s message=%s", issue.Path, issue.Keyword, issue.Message)
				}
			}
		})
	}
}

func TestValidateFile_InvalidManifests(t *testing.T) {
	invalidFiles := []struct {
		file string
		desc string
	}{
		{"invalid-missing-name.yaml", "missing required name field"},
		{"invalid-bad-type.yaml", "type outside the enum"},
		{"invalid-bad-icon.yaml", "icon size and url out of range"},
		{"invalid-bad-version.yaml", "version is not semver"},
		{"invalid-unknown-field.yaml", "unknown top-level field"},
	}

	for _, tt := range invalidFiles {
		t.Run(tt.file, func(t *testing.T) {
			result, err := ValidateFile(testPath(tt.file))
			if err != nil {
				t.Fatalf("ValidateFile(%s) unexpected error: %v", tt.file, err)
			}
			if result.Valid {
				t.Errorf("expected invalid for %s (%s), but got valid", tt.file, tt.desc)
			}
			if len(result.Issues) == 0 {
				t.Errorf("expected at least one issue for %s (%s)", tt.file, tt.desc)
			}
		})
	}
}

func TestValidateFile_InvalidYAML(t *testing.T) {
	_, err := ValidateFile(testPath("invalid-not-yaml.yaml"))
	if err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestValidate_IssueFields(t *testing.T) {
	result, err := ValidateFile(testPath("invalid-bad-icon.yaml"))
	if err != nil {
		t.Fatalf("ValidateFile error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}

	hasIconPath := false
	for _, issue := range result.Issues {
		if issue.Message == "" {
			t.Errorf("issue at %s has empty message", issue.Path)
		}
		if issue.Path == "/icons/0/size" || issue.Path == "/icons/0/url" {
			hasIconPath = true
		}
	}
	if !hasIconPath {
		t.Errorf("expected an issue under /icons/0, got %+v", result.Issues)
	}
}

func TestValidate_SemverIssue(t *testing.T) {
	result, err := Validate([]byte("name: x\nversion: \"1.2.3.4\"\n"))
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result for four-part version")
	}
}

func TestValidate_SchemaCompiles(t *testing.T) {
	schema, err := getSchema()
	if err != nil {
		t.Fatalf("getSchema() error: %v", err)
	}
	if schema == nil {
		t.Fatal("getSchema() returned nil schema")
	}
}

func TestValidate_NonMappingRoot(t *testing.T) {
	if _, err := Validate([]byte("- name: x\n")); err == nil {
		t.Fatal("expected error for a list at the document root, got nil")
	}
}

func TestValidate_EmptyDocument(t *testing.T) {
	result, err := Validate(nil)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected missing required fields to be reported")
	}
}
