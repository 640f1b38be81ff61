package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Values do not survive the process.
type Memory struct {
	area Area
	mu   sync.Mutex
	data map[string]any
	n    *notifier
}

// NewMemory returns an empty in-memory store bound to area.
func NewMemory(area Area) *Memory {
	return &Memory{area: area, data: make(map[string]any), n: newNotifier(area)}
}

func (m *Memory) Area() Area { return m.area }

func (m *Memory) Get(ctx context.Context, defaults map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return pick(nil, defaults), err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return pick(m.data, defaults), nil
}

func (m *Memory) Set(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	norm, err := normalizeAll(values)
	if err != nil {
		return err
	}

	m.mu.Lock()
	before := make(map[string]any, len(norm))
	for k := range norm {
		if v, ok := m.data[k]; ok {
			before[k] = v
		}
	}
	for k, v := range norm {
		m.data[k] = v
	}
	changes := diff(before, norm)
	// Publish under the lock so two writers' notifications keep write order.
	m.n.publish(changes)
	m.mu.Unlock()
	return nil
}

func (m *Memory) OnChange(l Listener) func() { return m.n.subscribe(l) }

func (m *Memory) Close() error {
	m.n.close()
	return nil
}
