//go:build integration

package integration_test

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// binPath is the extswitch binary built once for the whole package.
var binPath string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "extswitch-e2e")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating temp dir: %v\n", err)
		os.Exit(1)
	}
	binPath = filepath.Join(dir, "extswitch")
	build := exec.Command("go", "build", "-o", binPath, "../..")
	build.Stdout, build.Stderr = os.Stderr, os.Stderr
	if err := build.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "building extswitch: %v\n", err)
		os.RemoveAll(dir)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// testEnv holds the isolated home directory every process in a test shares.
type testEnv struct {
	HomeDir       string // EXTSWITCH_HOME
	ExtensionsDir string // EXTSWITCH_EXTENSIONS
	Driver        string // EXTSWITCH_STORE_DRIVER
}

// setupTestEnv creates a home with three installed extensions.
func setupTestEnv(t *testing.T, driver string) *testEnv {
	t.Helper()

	env := &testEnv{HomeDir: t.TempDir(), Driver: driver}
	env.ExtensionsDir = filepath.Join(env.HomeDir, "extensions")

	writeManifest(t, env.ExtensionsDir, "alpha", "name: Alpha\nversion: 1.0.0\n")
	writeManifest(t, env.ExtensionsDir, "bravo", "name: Bravo\nversion: 2.0.0\n")
	writeManifest(t, env.ExtensionsDir, "charlie", "name: Charlie\nversion: 3.0.0\n")
	return env
}

func (e *testEnv) environ() []string {
	return append(os.Environ(),
		"EXTSWITCH_HOME="+e.HomeDir,
		"EXTSWITCH_EXTENSIONS="+e.ExtensionsDir,
		"EXTSWITCH_STORE_DRIVER="+e.Driver,
		"EXTSWITCH_STORE_POLL_INTERVAL=50ms",
		"EXTSWITCH_REFRESH_DELAY=20ms",
	)
}

// runCLI runs one extswitch command to completion and returns its stdout.
func runCLI(t *testing.T, env *testEnv, args ...string) string {
	t.Helper()
	cmd := exec.Command(binPath, args...)
	cmd.Env = env.environ()
	var stdout, stderr strings.Builder
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("extswitch %s: %v\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), err, stdout.String(), stderr.String())
	}
	return stdout.String()
}

// watcher is a running "extswitch watch" whose output is collected.
type watcher struct {
	cmd *exec.Cmd

	mu  sync.Mutex
	out strings.Builder
}

func startWatch(t *testing.T, env *testEnv, args ...string) *watcher {
	t.Helper()
	cmd := exec.Command(binPath, append([]string{"watch"}, args...)...)
	cmd.Env = env.environ()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting watch: %v", err)
	}

	w := &watcher{cmd: cmd}
	go func() {
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			w.mu.Lock()
			w.out.WriteString(sc.Text())
			w.out.WriteString("\n")
			w.mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = cmd.Process.Signal(os.Interrupt)
		done := make(chan struct{})
		go func() { _ = cmd.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
		}
	})
	return w
}

// since returns the output written after offset.
func (w *watcher) since(offset int) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.out.String()
	if offset > len(s) {
		return ""
	}
	return s[offset:]
}

func (w *watcher) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Len()
}

// waitFor polls until the output after offset contains substr.
func (w *watcher) waitFor(t *testing.T, offset int, substr string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(w.since(offset), substr) {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("watch output never contained %q.\nOutput:\n%s", substr, w.since(0))
}

// writeManifest creates <root>/<id>/manifest.yaml.
func writeManifest(t *testing.T, root, id, content string) {
	t.Helper()
	writeFile(t, filepath.Join(root, id, "manifest.yaml"), content)
}

// writeFile creates a file with the given content, creating parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
