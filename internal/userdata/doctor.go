package userdata

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/agentx-labs/extswitch/internal/platform"
	"go.yaml.in/yaml/v3"
)

// Doctor output markers.
const (
	markOK   = "[ OK ]"
	markWarn = "[WARN]"
	markFail = "[FAIL]"
	markFix  = "[FIX ]"
	markMiss = "[MISS]"
)

// entryCheck describes one path under the home directory.
type entryCheck struct {
	path func() string
	dir  bool
	perm os.FileMode
}

var userdataEntries = []entryCheck{
	{path: GetSettingsPath, perm: FilePermSecure},
	{path: GetExtensionsRoot, dir: true, perm: DirPermNormal},
	{path: GetHostStatePath, perm: FilePermSecure},
}

type report struct {
	w   io.Writer
	fix bool
}

func (r report) line(mark, format string, args ...any) {
	fmt.Fprintf(r.w, "  %s "+format+"\n", append([]any{mark}, args...)...)
}

// CheckUserdata reports on the home directory layout. With fix, a missing
// home is initialized, missing directories are created and file permissions
// are tightened. Files that do not parse are only reported, since readers
// already fall back to defaults for them.
func CheckUserdata(w io.Writer, fix bool) error {
	r := report{w: w, fix: fix}
	root := GetRoot()
	fmt.Fprintln(w, "Userdata check:")

	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		r.line(markMiss, "%s does not exist", root)
		if !fix {
			fmt.Fprintln(w, "         Run 'extswitch init' to create")
			return nil
		}
		r.line(markFix, "Running init...")
		if err := InitGlobal(w); err != nil {
			return fmt.Errorf("auto-fix init: %w", err)
		}
		return nil
	}
	r.line(markOK, "%s exists", root)

	for _, e := range userdataEntries {
		if e.dir {
			r.dir(e.path())
		} else {
			r.file(e.path(), e.perm)
		}
	}
	return nil
}

func (r report) file(path string, want os.FileMode) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.line(markMiss, "%s does not exist", path)
		return
	case err != nil:
		r.line(markFail, "%s: %v", path, err)
		return
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		r.line(markWarn, "%s is not valid YAML (defaults will be used): %v", path, err)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		r.line(markFail, "%s: %v", path, err)
		return
	}
	got := info.Mode().Perm()
	if got == want {
		r.line(markOK, "%s (permissions %o)", path, got)
		return
	}
	r.line(markWarn, "%s has permissions %o (expected %o)", path, got, want)
	if !r.fix {
		return
	}
	if err := platform.Chmod(path, want); err != nil {
		r.line(markFail, "Could not fix permissions on %s: %v", path, err)
		return
	}
	r.line(markFix, "Fixed permissions on %s to %o", path, want)
}

func (r report) dir(path string) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.line(markMiss, "%s does not exist", path)
		if !r.fix {
			return
		}
		if err := os.MkdirAll(path, DirPermNormal); err != nil {
			r.line(markFail, "Could not create %s: %v", path, err)
			return
		}
		r.line(markFix, "Created %s", path)
	case err != nil:
		r.line(markFail, "%s: %v", path, err)
	case !info.IsDir():
		r.line(markWarn, "%s exists but is not a directory", path)
	default:
		r.line(markOK, "%s exists", path)
	}
}
