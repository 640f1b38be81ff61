package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentx-labs/extswitch/internal/extension"
	"github.com/agentx-labs/extswitch/internal/manifest"
)

func TestNewScaffoldData(t *testing.T) {
	t.Run("name derived from id", func(t *testing.T) {
		d := NewScaffoldData("dark-reader", "", "")
		if d.Name != "Dark Reader" {
			t.Errorf("Name = %q, want %q", d.Name, "Dark Reader")
		}
		if d.Type != manifest.TypeExtension {
			t.Errorf("Type = %q, want %q", d.Type, manifest.TypeExtension)
		}
		if d.Version != "0.1.0" {
			t.Errorf("Version = %q, want %q", d.Version, "0.1.0")
		}
		if !d.MayDisable {
			t.Error("MayDisable should default to true")
		}
	})

	t.Run("explicit name kept", func(t *testing.T) {
		d := NewScaffoldData("x", "Solarized: Dark", manifest.TypeTheme)
		if d.Name != "Solarized: Dark" {
			t.Errorf("Name = %q", d.Name)
		}
	})
}

func TestGenerateExtension(t *testing.T) {
	root := t.TempDir()
	data := NewScaffoldData("dark-reader", "", "")
	data.Author = "Jane: Doe"
	data.MayDisable = false

	result, err := Generate(root, data)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	assertFiles(t, result, []string{"README.md", "manifest.yaml"})

	m, err := manifest.ParseFile(filepath.Join(root, "dark-reader", "manifest.yaml"))
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if m.Name != "Dark Reader" || m.Author != "Jane: Doe" || m.CanDisable() {
		t.Errorf("manifest = %+v", m)
	}
	if len(m.Icons) != 2 {
		t.Errorf("Icons = %v, want 2", m.Icons)
	}
}

func TestGenerateIsListedByHost(t *testing.T) {
	root := t.TempDir()
	if _, err := Generate(root, NewScaffoldData("midnight", "Midnight", manifest.TypeTheme)); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	h, err := extension.NewDirHost(root)
	if err != nil {
		t.Fatalf("NewDirHost() error: %v", err)
	}
	defer h.Close()

	info, err := h.Get(context.Background(), "midnight")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if info.Type != manifest.TypeTheme || !info.Enabled {
		t.Errorf("info = %+v", info)
	}
}

func TestGenerateRefusesNonEmptyDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "taken")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Generate(root, NewScaffoldData("taken", "", "")); err == nil {
		t.Error("expected error for non-empty directory")
	}
}

func TestGenerateRejects(t *testing.T) {
	tests := []struct {
		name string
		data *ScaffoldData
	}{
		{"unknown type", NewScaffoldData("x", "", "login_item")},
		{"path traversal", NewScaffoldData("../x", "", "")},
		{"empty id", NewScaffoldData("", "Nameless", "")},
		{"hidden id", NewScaffoldData(".x", "", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Generate(t.TempDir(), tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func assertFiles(t *testing.T, result *Result, expected []string) {
	t.Helper()
	got := make(map[string]bool, len(result.Files))
	for _, f := range result.Files {
		got[f] = true
	}
	for _, f := range expected {
		if !got[f] {
			t.Errorf("missing file %s (got %v)", f, result.Files)
		}
		if _, err := os.Stat(filepath.Join(result.OutputDir, f)); err != nil {
			t.Errorf("file %s not on disk: %v", f, err)
		}
	}
}
