package userdata

import (
	"os"
	"path/filepath"

	"github.com/agentx-labs/extswitch/internal/branding"
	"github.com/agentx-labs/extswitch/internal/config"
)

// Directory and file name constants for the userdata convention.
const (
	SettingsFile   = "settings.yaml"
	SettingsDBFile = "settings.db"
	ExtensionsDir  = "extensions"
	HostStateFile  = "state.yaml"
)

// Permission constants.
const (
	DirPermSecure  os.FileMode = 0700
	FilePermSecure os.FileMode = 0600
	DirPermNormal  os.FileMode = 0755
)

// GetRoot returns the extswitch home directory. It checks EXTSWITCH_HOME
// first, then falls back to ~/.extswitch.
func GetRoot() string {
	return config.Dir()
}

// GetSettingsPath returns the path of the YAML settings document used by the
// file store driver.
func GetSettingsPath() string {
	return filepath.Join(GetRoot(), SettingsFile)
}

// GetSettingsDBPath returns the path of the SQLite database used by the
// sqlite store driver.
func GetSettingsDBPath() string {
	return filepath.Join(GetRoot(), SettingsDBFile)
}

// GetExtensionsRoot returns the installed-extensions directory.
// Checks EXTSWITCH_EXTENSIONS first, then falls back to ~/.extswitch/extensions/.
func GetExtensionsRoot() string {
	if v := os.Getenv(branding.EnvVar("EXTENSIONS")); v != "" {
		return v
	}
	return filepath.Join(GetRoot(), ExtensionsDir)
}

// GetHostStatePath returns the path of the file recording which installed
// extensions are disabled.
func GetHostStatePath() string {
	return filepath.Join(GetExtensionsRoot(), HostStateFile)
}
