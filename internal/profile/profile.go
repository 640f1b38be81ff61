// Package profile saves and restores the enabled state of every managed
// extension under a name. Applying a profile is best effort: each id is
// set independently and failures are collected, never fatal.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/settings"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotFound reports a profile name that is not stored.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidName reports an empty or whitespace-only profile name.
	ErrInvalidName = errors.New("invalid profile name")
)

// DefaultParallelism bounds concurrent host calls during Apply.
const DefaultParallelism = 4

// Failure is one id that could not be set during Apply.
type Failure struct {
	ID  string
	Err error
}

// ApplyReport summarizes an Apply.
type ApplyReport struct {
	Name      string
	Applied   []string
	Unchanged []string
	Failures  []Failure
}

// OK reports whether every id ended in its profile state.
func (r *ApplyReport) OK() bool { return len(r.Failures) == 0 }

// Observer receives apply outcomes, for metrics.
type Observer interface {
	ProfileApplied(name string, applied, unchanged, failed int)
}

// Option configures a Manager.
type Option func(*Manager)

// WithParallelism bounds concurrent SetEnabled calls. Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.parallelism = n
		}
	}
}

// WithObserver reports apply outcomes to o.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// Manager stores profiles in settings and applies them through the catalog.
type Manager struct {
	catalog     *catalog.Catalog
	settings    *settings.Settings
	parallelism int
	observer    Observer

	// mu serializes read-modify-write of the profiles key within this process.
	mu sync.Mutex
}

// New returns a Manager. Writes mark the profiles key in whatever
// suppressor s carries.
func New(c *catalog.Catalog, s *settings.Settings, opts ...Option) *Manager {
	m := &Manager{catalog: c, settings: s, parallelism: DefaultParallelism}
	for _, o := range opts {
		o(m)
	}
	return m
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// Capture returns the live enabled state of every managed item.
func (m *Manager) Capture(ctx context.Context) (settings.Profile, error) {
	items, err := m.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	return settings.Profile(lo.SliceToMap(items, func(it catalog.Item) (string, bool) {
		return it.ID, it.Enabled
	})), nil
}

// Snapshot stores the live state under name, replacing any profile of that name.
func (m *Manager) Snapshot(ctx context.Context, name string) (settings.Profile, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	p, err := m.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing profile %q: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	all, err := m.settings.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	all[name] = p
	if err := m.settings.SetProfiles(ctx, all); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the stored profile.
func (m *Manager) Get(ctx context.Context, name string) (settings.Profile, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	all, err := m.settings.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return p, nil
}

// List returns the stored profile names, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	all, err := m.settings.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	names := lo.Keys(all)
	sort.Strings(names)
	return names, nil
}

// Delete removes a profile. Default may be deleted; EnsureDefault recreates it.
func (m *Manager) Delete(ctx context.Context, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	all, err := m.settings.Profiles(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	delete(all, name)
	return m.settings.SetProfiles(ctx, all)
}

// EnsureDefault creates the Default profile from live state if it does not
// exist. It is safe to call on every start.
func (m *Manager) EnsureDefault(ctx context.Context) (bool, error) {
	all, err := m.settings.Profiles(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := all[settings.DefaultProfile]; ok {
		return false, nil
	}

	p, err := m.Capture(ctx)
	if err != nil {
		return false, fmt.Errorf("capturing default profile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Re-read: another call may have created it while we captured.
	all, err = m.settings.Profiles(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := all[settings.DefaultProfile]; ok {
		return false, nil
	}
	all[settings.DefaultProfile] = p
	if err := m.settings.SetProfiles(ctx, all); err != nil {
		return false, err
	}
	return true, nil
}

// Apply sets every id of the profile to its stored state. Ids already in
// that state are not touched. Per-id failures are collected in the report;
// the returned error is only for a missing profile or unreadable settings.
func (m *Manager) Apply(ctx context.Context, name string) (*ApplyReport, error) {
	p, err := m.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	name, _ = normalizeName(name)

	items, err := m.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("applying profile %q: %w", name, err)
	}
	live := lo.SliceToMap(items, func(it catalog.Item) (string, bool) { return it.ID, it.Enabled })

	report := &ApplyReport{Name: name}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)

	ids := lo.Keys(p)
	sort.Strings(ids)
	for _, id := range ids {
		want := p[id]
		if cur, ok := live[id]; ok && cur == want {
			report.Unchanged = append(report.Unchanged, id)
			continue
		}
		g.Go(func() error {
			err := m.catalog.SetEnabled(gctx, id, want)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, Failure{ID: id, Err: err})
				return nil
			}
			report.Applied = append(report.Applied, id)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Applied)
	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].ID < report.Failures[j].ID })
	if m.observer != nil {
		m.observer.ProfileApplied(name, len(report.Applied), len(report.Unchanged), len(report.Failures))
	}
	return report, nil
}
