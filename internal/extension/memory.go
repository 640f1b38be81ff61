package extension

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryHost is an in-process Host. Failures can be injected per id.
type MemoryHost struct {
	mu       sync.Mutex
	items    []Info
	failures map[string]error
	calls    map[string]int
	em       *emitter
}

// NewMemoryHost returns a host with items installed in the given order.
func NewMemoryHost(items ...Info) *MemoryHost {
	h := &MemoryHost{
		failures: make(map[string]error),
		calls:    make(map[string]int),
		em:       newEmitter(),
	}
	for _, it := range items {
		h.Install(it)
	}
	return h
}

// Install adds or replaces an extension.
func (h *MemoryHost) Install(info Info) {
	h.mu.Lock()
	defer h.mu.Unlock()
	info.Icons = slices.Clone(info.Icons)
	if i := h.index(info.ID); i >= 0 {
		h.items[i] = info
		return
	}
	h.items = append(h.items, info)
}

// Uninstall removes an extension.
func (h *MemoryHost) Uninstall(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i := h.index(id); i >= 0 {
		h.items = slices.Delete(h.items, i, i+1)
	}
}

// FailOn makes every SetEnabled for id return err. A nil err clears it.
func (h *MemoryHost) FailOn(id string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.failures, id)
		return
	}
	h.failures[id] = err
}

// Calls returns how many times SetEnabled was called for id.
func (h *MemoryHost) Calls(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[id]
}

func (h *MemoryHost) index(id string) int {
	return slices.IndexFunc(h.items, func(it Info) bool { return it.ID == id })
}

func (h *MemoryHost) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Info, len(h.items))
	for i, it := range h.items {
		it.Icons = slices.Clone(it.Icons)
		out[i] = it
	}
	return out, nil
}

func (h *MemoryHost) Get(ctx context.Context, id string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	i := h.index(id)
	if i < 0 {
		return Info{}, fmt.Errorf("%q: %w", id, ErrNotInstalled)
	}
	it := h.items[i]
	it.Icons = slices.Clone(it.Icons)
	return it, nil
}

func (h *MemoryHost) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.calls[id]++
	i := h.index(id)
	if i < 0 {
		return fmt.Errorf("%q: %w", id, ErrNotInstalled)
	}
	if err := h.failures[id]; err != nil {
		return err
	}
	if !enabled && !h.items[i].MayDisable {
		return fmt.Errorf("disabling %q: %w", id, ErrNotPermitted)
	}
	if h.items[i].Enabled == enabled {
		return nil
	}
	h.items[i].Enabled = enabled
	h.em.emit(eventFor(h.items[i]))
	return nil
}

func (h *MemoryHost) Subscribe(fn func(Event)) func() { return h.em.subscribe(fn) }

// Close stops event delivery.
func (h *MemoryHost) Close() error {
	h.em.close()
	return nil
}
