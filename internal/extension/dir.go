package extension

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/agentx-labs/extswitch/internal/manifest"
	"github.com/agentx-labs/extswitch/internal/platform"
	"github.com/fsnotify/fsnotify"
)

// ManifestFile is the manifest name inside each extension directory.
const ManifestFile = "manifest.yaml"

// DirHost is a Host backed by an extensions directory. Changes made by
// another process (enable or disable through state.yaml, an extension
// directory added or removed, a manifest edited) are detected with fsnotify
// and fired as events.
type DirHost struct {
	root      string
	statePath string

	mu    sync.Mutex
	known map[string]Info

	em      *emitter
	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}
}

// NewDirHost opens the extensions root, creating it if needed.
func NewDirHost(root string) (*DirHost, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating extensions root %s: %w", root, err)
	}
	h := &DirHost{
		root:      root,
		statePath: filepath.Join(root, StateFile),
		known:     make(map[string]Info),
		em:        newEmitter(),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		h.em.close()
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(root); err != nil {
		w.Close()
		h.em.close()
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}
	h.watcher = w
	h.watchChildren()

	// Watches are in place before the first scan, so nothing installed in
	// between goes unseen.
	if infos, _, err := h.scan(); err == nil {
		for _, info := range infos {
			h.known[info.ID] = info
		}
	}
	go h.watch()
	return h, nil
}

// watchChildren adds a watch on every extension directory so manifests
// written after their directory was created are noticed.
func (h *DirHost) watchChildren() {
	entries, err := os.ReadDir(h.root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			_ = h.watcher.Add(filepath.Join(h.root, e.Name()))
		}
	}
}

// Root returns the extensions root directory.
func (h *DirHost) Root() string { return h.root }

// Scan lists every installed extension and returns the manifests it had to
// skip as problems.
func (h *DirHost) Scan(ctx context.Context) ([]Info, []error, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return h.scan()
}

func (h *DirHost) scan() ([]Info, []error, error) {
	entries, err := os.ReadDir(h.root)
	if err != nil {
		return nil, nil, fmt.Errorf("reading extensions root %s: %w", h.root, err)
	}
	st, err := LoadState(h.statePath)
	if err != nil {
		return nil, nil, err
	}

	var (
		infos    []Info
		problems []error
	)
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := h.load(e.Name(), st)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			problems = append(problems, err)
			continue
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, problems, nil
}

func (h *DirHost) load(id string, st *State) (Info, error) {
	dir := filepath.Join(h.root, id)
	path := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(path); err != nil {
		return Info{}, err
	}
	m, err := manifest.ParseFile(path)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		ID:         id,
		Name:       m.Name,
		Version:    m.Version,
		Type:       m.Type,
		Enabled:    st.IsEnabled(id),
		MayDisable: m.CanDisable(),
	}
	for _, ic := range m.Icons {
		url := ic.URL
		if !strings.Contains(url, "://") && !filepath.IsAbs(url) {
			url = filepath.Join(dir, url)
		}
		info.Icons = append(info.Icons, Icon{Size: ic.Size, URL: url})
	}
	return info, nil
}

// List returns every installed extension with a valid manifest.
func (h *DirHost) List(ctx context.Context) ([]Info, error) {
	infos, _, err := h.Scan(ctx)
	return infos, err
}

func (h *DirHost) Get(ctx context.Context, id string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	if !validID(id) {
		return Info{}, fmt.Errorf("%q: %w", id, ErrNotInstalled)
	}
	st, err := LoadState(h.statePath)
	if err != nil {
		return Info{}, err
	}
	info, err := h.load(id, st)
	if errors.Is(err, os.ErrNotExist) {
		return Info{}, fmt.Errorf("%q: %w", id, ErrNotInstalled)
	}
	return info, err
}

func (h *DirHost) SetEnabled(ctx context.Context, id string, enabled bool) error {
	info, err := h.Get(ctx, id)
	if err != nil {
		return err
	}
	if !enabled && !info.MayDisable {
		return fmt.Errorf("disabling %q: %w", id, ErrNotPermitted)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	st, err := LoadState(h.statePath)
	if err != nil {
		return err
	}
	info.Enabled = enabled
	if !st.SetEnabled(id, enabled) {
		h.known[id] = info
		return nil
	}
	if err := SaveState(h.statePath, st); err != nil {
		return err
	}

	h.known[id] = info
	h.em.emit(eventFor(info))
	return nil
}

func (h *DirHost) Subscribe(fn func(Event)) func() { return h.em.subscribe(fn) }

func (h *DirHost) watch() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			return
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if h.relevant(ev) {
				h.reload()
			}
		case _, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// relevant reports whether ev can change what List returns. A new
// extension directory also gets a watch of its own.
func (h *DirHost) relevant(ev fsnotify.Event) bool {
	if platform.IsTempArtifact(ev.Name) {
		return false
	}
	name := filepath.Clean(ev.Name)
	parent := filepath.Dir(name)
	switch {
	case name == h.statePath:
		return true
	case parent == h.root:
		if strings.HasPrefix(filepath.Base(name), ".") {
			return false
		}
		if ev.Has(fsnotify.Create) {
			if fi, err := os.Stat(name); err == nil && fi.IsDir() {
				_ = h.watcher.Add(name)
			}
		}
		return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
	case filepath.Dir(parent) == h.root:
		return filepath.Base(name) == ManifestFile
	}
	return false
}

// reload fires events for changes made outside this host. Changes made
// through SetEnabled already updated known and fire nothing here.
func (h *DirHost) reload() {
	h.mu.Lock()
	defer h.mu.Unlock()

	infos, _, err := h.scan()
	if err != nil {
		return
	}
	var events []Event
	present := make(map[string]bool, len(infos))
	for _, info := range infos {
		present[info.ID] = true
		prev, seen := h.known[info.ID]
		h.known[info.ID] = info
		switch {
		case !seen:
			events = append(events, Event{Kind: EventInstalled, Info: info})
		case prev.Enabled != info.Enabled:
			events = append(events, eventFor(info))
		case !prev.equal(info):
			events = append(events, Event{Kind: EventUpdated, Info: info})
		}
	}
	for _, id := range slices.Sorted(maps.Keys(h.known)) {
		if !present[id] {
			events = append(events, Event{Kind: EventUninstalled, Info: h.known[id]})
			delete(h.known, id)
		}
	}
	h.em.emit(events...)
}

// Close stops the watcher and event delivery.
func (h *DirHost) Close() error {
	select {
	case <-h.done:
		return nil
	default:
	}
	close(h.done)
	err := h.watcher.Close()
	<-h.stopped
	h.em.close()
	return err
}

func eventFor(info Info) Event {
	kind := EventDisabled
	if info.Enabled {
		kind = EventEnabled
	}
	return Event{Kind: kind, Info: info}
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
