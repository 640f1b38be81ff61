package userdata

import (
	"fmt"
	"io"
	"os"

	"github.com/agentx-labs/extswitch/internal/platform"
)

// Default content for settings.yaml.
const defaultSettingsContent = `# Shared settings. Running extswitch surfaces pick up edits to this file.
pinnedExtensionIds: []
hiddenExtensionIds: []
popupSettings:
  height: 400
  sort: name_asc
  onlyPinnedVisible: false
targetExtensionId: ""
`

// Default content for extensions/state.yaml.
const defaultHostStateContent = `# Extensions listed here are installed but disabled.
disabled: []
`

// InitGlobal creates the full home directory structure with proper permissions.
// It prints progress messages to w. Existing items are skipped with a message.
func InitGlobal(w io.Writer) error {
	root := GetRoot()
	if err := ensureDir(w, root, DirPermNormal); err != nil {
		return err
	}

	if err := ensureFile(w, GetSettingsPath(), defaultSettingsContent, FilePermSecure); err != nil {
		return err
	}

	extRoot := GetExtensionsRoot()
	if err := ensureDir(w, extRoot, DirPermNormal); err != nil {
		return err
	}

	if err := ensureFile(w, GetHostStatePath(), defaultHostStateContent, FilePermSecure); err != nil {
		return err
	}

	return nil
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(w io.Writer, path string, perm os.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			fmt.Fprintf(w, "  [SKIP] %s already exists\n", path)
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	// MkdirAll may not apply exact perms if parent dirs needed creation.
	if err := platform.Chmod(path, perm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	fmt.Fprintf(w, "  [ OK ] Created %s\n", path)
	return nil
}

// ensureFile creates a file with content if it doesn't exist.
func ensureFile(w io.Writer, path, content string, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "  [SKIP] %s already exists\n", path)
		return nil
	}

	if err := platform.WriteFileAtomic(path, []byte(content), perm); err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	fmt.Fprintf(w, "  [ OK ] Created %s\n", path)
	return nil
}
