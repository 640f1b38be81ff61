package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrUnavailable reports that the backing storage could not be read or
// written. Readers fall back to their defaults; writers surface a status.
var ErrUnavailable = errors.New("store unavailable")

// Area distinguishes synchronized settings from machine-local ones.
type Area string

const (
	AreaSync  Area = "sync"
	AreaLocal Area = "local"
)

// Change describes one key whose value changed.
type Change struct {
	Key      string
	OldValue any
	NewValue any
}

// Listener receives the keys changed by one write, or by one external edit.
type Listener func(changes map[string]Change, area Area)

// Store is an asynchronous key-value store with change notification.
type Store interface {
	// Area returns the storage area this store serves.
	Area() Area
	// Get returns, for every key in defaults, the stored value or the
	// default when the key is missing. On ErrUnavailable the defaults are
	// still returned alongside the error.
	Get(ctx context.Context, defaults map[string]any) (map[string]any, error)
	// Set persists values and then notifies every listener of the keys
	// whose value actually changed.
	Set(ctx context.Context, values map[string]any) error
	// OnChange registers l and returns a function that removes it.
	OnChange(l Listener) (unsubscribe func())
	Close() error
}

// normalize converts v into its JSON-compatible form so that values read
// back from any driver compare equal to the values that were written.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding value: %w", err)
	}
	return out, nil
}

func normalizeAll(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for k, v := range values {
		n, err := normalize(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

// cloneValue deep-copies a normalized value.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		a := make([]any, len(val))
		for i, e := range val {
			a[i] = cloneValue(e)
		}
		return a
	default:
		return val
	}
}

// pick resolves defaults against data.
func pick(data, defaults map[string]any) map[string]any {
	out := make(map[string]any, len(defaults))
	for k, def := range defaults {
		if v, ok := data[k]; ok {
			out[k] = cloneValue(v)
			continue
		}
		out[k] = def
	}
	return out
}

// diff returns the keys whose values differ between before and after. Only
// keys present in either map are considered.
func diff(before, after map[string]any) map[string]Change {
	changes := make(map[string]Change)
	for k, nv := range after {
		ov, ok := before[k]
		if ok && reflect.DeepEqual(ov, nv) {
			continue
		}
		changes[k] = Change{Key: k, OldValue: cloneValue(ov), NewValue: cloneValue(nv)}
	}
	for k, ov := range before {
		if _, ok := after[k]; !ok {
			changes[k] = Change{Key: k, OldValue: cloneValue(ov)}
		}
	}
	return changes
}

// notifier fans change sets out to listeners on a single dispatch goroutine,
// preserving publish order. Publishing never blocks, so a listener may write
// to the store it is subscribed to.
type notifier struct {
	area Area

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	pending   []map[string]Change
	closed    bool

	wake chan struct{}
	done chan struct{}
}

func newNotifier(area Area) *notifier {
	n := &notifier{
		area:      area,
		listeners: make(map[int]Listener),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *notifier) subscribe(l Listener) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = l
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) publish(changes map[string]Change) {
	if len(changes) == 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.pending = append(n.pending, changes)
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) run() {
	defer close(n.done)
	for range n.wake {
		n.drain()
	}
	n.drain()
}

func (n *notifier) drain() {
	for {
		n.mu.Lock()
		if len(n.pending) == 0 {
			n.mu.Unlock()
			return
		}
		batch := n.pending[0]
		n.pending = n.pending[1:]
		listeners := make([]Listener, 0, len(n.listeners))
		for id := 0; id < n.nextID; id++ {
			if l, ok := n.listeners[id]; ok {
				listeners = append(listeners, l)
			}
		}
		n.mu.Unlock()

		for _, l := range listeners {
			l(batch, n.area)
		}
	}
}

// close delivers already-published batches and stops the dispatch goroutine.
// It must not be called from a listener.
func (n *notifier) close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.wake)
	n.mu.Unlock()
	<-n.done
}
