package surface

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/compose"
	"github.com/agentx-labs/extswitch/internal/metrics"
	"github.com/agentx-labs/extswitch/internal/profile"
	"github.com/agentx-labs/extswitch/internal/refresh"
	"github.com/agentx-labs/extswitch/internal/settings"
	"github.com/agentx-labs/extswitch/internal/store"
	"github.com/agentx-labs/extswitch/internal/suppress"
)

// Default echo windows. Management events for a toggled id may trail the
// toggle by longer than a settings write takes to echo.
const (
	DefaultStoreTTL = 600 * time.Millisecond
	DefaultMgmtTTL  = 800 * time.Millisecond
)

// PopupConfig holds the popup's collaborators. Zero durations use defaults;
// Status and Metrics may be nil.
type PopupConfig struct {
	Catalog     *catalog.Catalog
	Settings    *settings.Settings
	Renderer    Renderer
	Status      StatusSink
	StoreTTL    time.Duration
	MgmtTTL     time.Duration
	Delay       time.Duration
	Parallelism int
	Metrics     *metrics.Metrics
}

// Popup keeps the rendered view consistent with user actions, host events
// and settings edits made by other surfaces.
type Popup struct {
	catalog  *catalog.Catalog
	settings *settings.Settings
	profiles *profile.Manager
	renderer Renderer
	status   StatusSink
	metrics  *metrics.Metrics

	storeSup *suppress.Suppressor
	mgmtSup  *suppress.Suppressor
	coord    *refresh.Coordinator

	mu     sync.Mutex
	items  []catalog.Item
	snap   settings.Snapshot
	last   compose.Result
	edits  uint64 // bumped by every local write to items or snap
	unsubs []func()
}

// NewPopup builds a popup. Nothing runs until Start.
func NewPopup(cfg PopupConfig) *Popup {
	storeTTL := cfg.StoreTTL
	if storeTTL <= 0 {
		storeTTL = DefaultStoreTTL
	}
	mgmtTTL := cfg.MgmtTTL
	if mgmtTTL <= 0 {
		mgmtTTL = DefaultMgmtTTL
	}

	p := &Popup{
		catalog:  cfg.Catalog,
		renderer: cfg.Renderer,
		status:   cfg.Status,
		metrics:  cfg.Metrics,
		storeSup: suppress.New(suppress.WithTTL(storeTTL)),
		mgmtSup:  suppress.New(suppress.WithTTL(mgmtTTL)),
	}
	if p.status == nil {
		p.status = nopStatus{}
	}
	p.settings = cfg.Settings.WithSuppressor(p.storeSup)

	profOpts := []profile.Option{profile.WithParallelism(cfg.Parallelism)}
	refreshOpts := []refresh.Option{refresh.WithDelay(cfg.Delay)}
	if cfg.Metrics != nil {
		profOpts = append(profOpts, profile.WithObserver(cfg.Metrics))
		refreshOpts = append(refreshOpts, refresh.WithObserver(cfg.Metrics))
	}
	p.profiles = profile.New(cfg.Catalog, p.settings, profOpts...)
	p.coord = refresh.New(p.pass, refreshOpts...)
	return p
}

// Profiles returns the profile manager writing through this popup's
// suppressor.
func (p *Popup) Profiles() *profile.Manager { return p.profiles }

// Coordinator returns the refresh coordinator, for inspection.
func (p *Popup) Coordinator() *refresh.Coordinator { return p.coord }

// Start ensures the Default profile, subscribes to settings and host
// events, and renders once before returning.
func (p *Popup) Start(ctx context.Context) error {
	if _, err := p.profiles.EnsureDefault(ctx); err != nil {
		p.status.Status(msgDefaultFail + err.Error())
	}

	unsubStore := p.settings.Store().OnChange(p.onStoreChange)
	unsubHost := p.catalog.Subscribe(p.onHostEvent)
	p.mu.Lock()
	p.unsubs = append(p.unsubs, unsubStore, unsubHost)
	p.mu.Unlock()

	p.coord.RunOnce()
	return nil
}

func (p *Popup) onStoreChange(changes map[string]store.Change, area store.Area) {
	if area != store.AreaSync {
		return
	}
	relevant := false
	for key := range changes {
		if !slices.Contains(settings.ViewKeys, key) {
			continue
		}
		if p.storeSup.IsSuppressed(key) {
			if p.metrics != nil {
				p.metrics.Suppressed("store")
			}
			continue
		}
		relevant = true
	}
	if relevant {
		p.coord.Request()
	}
}

func (p *Popup) onHostEvent(ev catalog.Event) {
	if p.mgmtSup.IsSuppressed(ev.Item.ID) {
		if p.metrics != nil {
			p.metrics.Suppressed("management")
		}
		return
	}
	p.coord.Request()
}

// pass is one compose-and-render run. A pass that overlapped a local edit
// read state from before it, so its result is dropped and another pass is
// queued behind this one.
func (p *Popup) pass(ctx context.Context) {
	p.mu.Lock()
	epoch := p.edits
	p.mu.Unlock()

	snap, err := p.settings.Load(ctx)
	if err != nil {
		p.status.Status(msgSettingsDown + err.Error())
	}
	items, err := p.catalog.List(ctx)
	if err != nil {
		p.status.Status(msgListFailed + err.Error())
		return
	}

	p.mu.Lock()
	if p.edits != epoch {
		p.mu.Unlock()
		p.coord.RunOnce()
		return
	}
	p.items = items
	p.snap = snap
	r := p.composeLocked()
	p.mu.Unlock()

	p.renderer.OnComposed(sectionsOf(r))
}

func (p *Popup) composeLocked() compose.Result {
	p.last = compose.Compose(compose.Input{
		Items:             p.items,
		SelfID:            p.catalog.SelfID(),
		Pinned:            p.snap.Pinned,
		Hidden:            p.snap.Hidden,
		Sort:              p.snap.Popup.Sort,
		OnlyPinnedVisible: p.snap.Popup.OnlyPinnedVisible,
	})
	return p.last
}

// Last returns the most recent composition.
func (p *Popup) Last() compose.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Settings returns the settings snapshot of the last pass, including local
// edits made since.
func (p *Popup) Settings() settings.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Refresh runs a pass now, or queues one behind the pass in flight.
func (p *Popup) Refresh() { p.coord.RunOnce() }

// Toggle flips id's enabled state. On success the cached item is patched
// and handed to the renderer without a full pass, and the host's echo of
// the change is suppressed.
func (p *Popup) Toggle(ctx context.Context, id string) error {
	cur, err := p.current(ctx, id)
	if err != nil {
		p.status.Status(msgToggleFailed + err.Error())
		p.toggled(false)
		return err
	}

	// The host event can arrive before SetEnabled returns.
	p.mgmtSup.Mark(id)
	if err := p.catalog.SetEnabled(ctx, id, !cur.Enabled); err != nil {
		p.status.Status(msgToggleFailed + err.Error())
		p.toggled(false)
		return err
	}
	p.toggled(true)

	cur.Enabled = !cur.Enabled
	p.mu.Lock()
	p.edits++
	for i := range p.items {
		if p.items[i].ID == id {
			p.items[i].Enabled = cur.Enabled
		}
	}
	p.patchLastLocked(cur)
	p.mu.Unlock()

	p.renderer.OnItemPatched(cur)
	return nil
}

func (p *Popup) toggled(ok bool) {
	if p.metrics != nil {
		p.metrics.Toggled(ok)
	}
}

func (p *Popup) patchLastLocked(it catalog.Item) {
	for i := range p.last.Pinned {
		if p.last.Pinned[i].ID == it.ID {
			p.last.Pinned[i] = it
		}
	}
	for i := range p.last.Main {
		if p.last.Main[i].ID == it.ID {
			p.last.Main[i] = it
		}
	}
}

func (p *Popup) current(ctx context.Context, id string) (catalog.Item, error) {
	p.mu.Lock()
	idx := slices.IndexFunc(p.items, func(it catalog.Item) bool { return it.ID == id })
	if idx >= 0 {
		it := p.items[idx]
		p.mu.Unlock()
		return it, nil
	}
	p.mu.Unlock()
	return p.catalog.Get(ctx, id)
}

// Pin, Unpin, Hide and Unhide write through settings and recompose from the
// cached catalog snapshot.
func (p *Popup) Pin(ctx context.Context, id string) error { return p.setMembership(ctx, settings.KeyPinned, id, true) }
func (p *Popup) Unpin(ctx context.Context, id string) error { return p.setMembership(ctx, settings.KeyPinned, id, false) }
func (p *Popup) Hide(ctx context.Context, id string) error { return p.setMembership(ctx, settings.KeyHidden, id, true) }
func (p *Popup) Unhide(ctx context.Context, id string) error { return p.setMembership(ctx, settings.KeyHidden, id, false) }

// TogglePin pins id if it is not pinned and unpins it otherwise.
func (p *Popup) TogglePin(ctx context.Context, id string) error {
	p.mu.Lock()
	pinned := slices.Contains(p.snap.Pinned, id)
	p.mu.Unlock()
	return p.setMembership(ctx, settings.KeyPinned, id, !pinned)
}

func (p *Popup) setMembership(ctx context.Context, key, id string, member bool) error {
	var (
		list []string
		err  error
	)
	if key == settings.KeyPinned {
		list, err = p.settings.SetPinned(ctx, id, member)
	} else {
		list, err = p.settings.SetHidden(ctx, id, member)
	}
	if err != nil {
		p.status.Status(msgSaveFailed + err.Error())
		return err
	}

	p.mu.Lock()
	p.edits++
	if key == settings.KeyPinned {
		p.snap.Pinned = list
	} else {
		p.snap.Hidden = list
	}
	r := p.composeLocked()
	p.mu.Unlock()
	p.renderer.OnComposed(sectionsOf(r))
	return nil
}

// SetSort changes the sort mode and recomposes.
func (p *Popup) SetSort(ctx context.Context, mode settings.SortMode) error {
	return p.updatePopup(ctx, func(ps *settings.PopupSettings) { ps.Sort = mode })
}

// CycleSort advances to the next sort mode.
func (p *Popup) CycleSort(ctx context.Context) error {
	return p.updatePopup(ctx, func(ps *settings.PopupSettings) { ps.Sort = ps.Sort.Next() })
}

// SetOnlyPinnedVisible switches the only-pinned layout and recomposes.
func (p *Popup) SetOnlyPinnedVisible(ctx context.Context, only bool) error {
	return p.updatePopup(ctx, func(ps *settings.PopupSettings) { ps.OnlyPinnedVisible = only })
}

// ToggleOnlyPinned flips the only-pinned layout.
func (p *Popup) ToggleOnlyPinned(ctx context.Context) error {
	return p.updatePopup(ctx, func(ps *settings.PopupSettings) { ps.OnlyPinnedVisible = !ps.OnlyPinnedVisible })
}

func (p *Popup) updatePopup(ctx context.Context, fn func(*settings.PopupSettings)) error {
	ps, err := p.settings.UpdatePopup(ctx, fn)
	if err != nil {
		p.status.Status(msgSaveFailed + err.Error())
		return err
	}
	p.mu.Lock()
	p.edits++
	p.snap.Popup = ps
	r := p.composeLocked()
	p.mu.Unlock()
	p.renderer.OnComposed(sectionsOf(r))
	return nil
}

// SaveProfile snapshots the live state under name.
func (p *Popup) SaveProfile(ctx context.Context, name string) error {
	if _, err := p.profiles.Snapshot(ctx, name); err != nil {
		p.status.Status(msgSaveFailed + err.Error())
		return err
	}
	p.status.Status(fmt.Sprintf(msgProfileSaved, name))
	return nil
}

// ApplyProfile applies a profile, reports each failed id, and schedules one
// refresh for the whole batch instead of one per host event.
func (p *Popup) ApplyProfile(ctx context.Context, name string) (*profile.ApplyReport, error) {
	prof, err := p.profiles.Get(ctx, name)
	if err != nil {
		p.status.Status(fmt.Sprintf(msgProfileFail, name, err))
		return nil, err
	}
	for id := range prof {
		p.mgmtSup.Mark(id)
	}

	report, err := p.profiles.Apply(ctx, name)
	if err != nil {
		p.status.Status(fmt.Sprintf(msgProfileFail, name, err))
		return nil, err
	}
	for _, f := range report.Failures {
		p.status.Status(fmt.Sprintf(msgProfileFail, report.Name, f.Err))
	}
	if report.OK() {
		p.status.Status(fmt.Sprintf(msgProfileDone, report.Name))
	}
	p.coord.Request()
	return report, nil
}

// Close unsubscribes and waits for a running pass.
func (p *Popup) Close() {
	p.mu.Lock()
	unsubs := p.unsubs
	p.unsubs = nil
	p.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
	p.coord.Close()
}
