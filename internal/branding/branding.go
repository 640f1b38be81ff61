// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded with //go:embed; forks edit that file to rename
// the binary, its home directory and its environment variable prefix.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	GitHubRepo  string `yaml:"github_repo"`
	SelfID      string `yaml:"self_id"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:     "extswitch",
			DisplayName: "ExtSwitch",
			Description: "Pin, hide, toggle and profile your installed extensions",
			HomeDir:     ".extswitch",
			EnvPrefix:   "EXTSWITCH",
			GoModule:    "github.com/agentx-labs/extswitch",
			GitHubRepo:  "agentx-labs/extswitch",
			SelfID:      "extswitch",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "extswitch").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "ExtSwitch").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".extswitch").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "EXTSWITCH").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path.
func GoModule() string { load(); return defaults.GoModule }

// GitHubRepo returns the "owner/repo" string.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// SelfID returns the extension id this tool registers under on the host.
// The catalog never lists it.
func SelfID() string { load(); return defaults.SelfID }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "EXTSWITCH_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
