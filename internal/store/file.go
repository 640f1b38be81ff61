package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentx-labs/extswitch/internal/platform"
	"github.com/fsnotify/fsnotify"
	"go.yaml.in/yaml/v3"
)

// File stores every key of one area in a single YAML document. Writes go
// through a temp file and rename; edits made by other processes are picked
// up by an fsnotify watcher on the parent directory.
type File struct {
	area Area
	path string
	perm os.FileMode

	mu       sync.Mutex
	snapshot map[string]any

	n       *notifier
	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}
}

// NewFile opens the YAML store at path, creating its directory if needed.
// The file itself is created on the first Set.
func NewFile(path string, area Area) (*File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
	}

	f := &File{
		area:     area,
		path:     filepath.Clean(path),
		perm:     0o600,
		snapshot: map[string]any{},
		n:        newNotifier(area),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	if data, err := f.read(); err == nil {
		f.snapshot = data
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		f.n.close()
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		f.n.close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	f.watcher = w
	go f.watch()
	return f, nil
}

// Path returns the location of the YAML document.
func (f *File) Path() string { return f.path }

func (f *File) Area() Area { return f.area }

// read loads and normalizes the document. A missing file is an empty store.
func (f *File) read() (map[string]any, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", f.path, ErrUnavailable, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %w", f.path, ErrUnavailable, err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	data, err := normalizeAll(doc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %w", f.path, ErrUnavailable, err)
	}
	return data, nil
}

func (f *File) Get(ctx context.Context, defaults map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return pick(nil, defaults), err
	}
	data, err := f.read()
	if err != nil {
		return pick(nil, defaults), err
	}
	return pick(data, defaults), nil
}

// Set merges values into the document. A document that cannot be parsed is
// never overwritten; the caller gets ErrUnavailable and the file is left for
// the user (or doctor) to repair.
func (f *File) Set(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	norm, err := normalizeAll(values)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	if err != nil {
		return err
	}
	for k, v := range norm {
		current[k] = v
	}

	out, err := yaml.Marshal(current)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", f.path, err)
	}
	if err := platform.WriteFileAtomic(f.path, out, f.perm); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	// The document may carry an external edit the watcher has not reloaded
	// yet, so the diff runs over every key against the last snapshot.
	changes := diff(f.snapshot, current)
	f.snapshot = current
	f.n.publish(changes)
	return nil
}

func (f *File) watch() {
	defer close(f.stopped)
	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if platform.IsTempArtifact(ev.Name) || filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				f.reload()
			}
		case _, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// reload diffs the document on disk against the last known snapshot and
// publishes whatever another process changed. Our own writes have already
// updated the snapshot, so they produce no second notification.
func (f *File) reload() {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.read()
	if err != nil {
		// Half-written or hand-broken file; wait for the next event.
		return
	}
	changes := diff(f.snapshot, data)
	f.snapshot = data
	f.n.publish(changes)
}

func (f *File) OnChange(l Listener) func() { return f.n.subscribe(l) }

func (f *File) Close() error {
	select {
	case <-f.done:
		return nil
	default:
	}
	close(f.done)
	err := f.watcher.Close()
	<-f.stopped
	f.n.close()
	if err != nil {
		return fmt.Errorf("closing watcher: %w", err)
	}
	return nil
}
