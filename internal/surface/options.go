package surface

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/compose"
	"github.com/agentx-labs/extswitch/internal/settings"
	"github.com/agentx-labs/extswitch/internal/store"
	"github.com/agentx-labs/extswitch/internal/suppress"
	"github.com/samber/lo"
)

// OptionsConfig holds the options editor's collaborators. OnExternalChange
// receives keys changed by other surfaces with their typed, defaulted
// value: []string for id lists, settings.PopupSettings, settings.Profiles
// or string.
type OptionsConfig struct {
	Catalog          *catalog.Catalog
	Settings         *settings.Settings
	Status           StatusSink
	StoreTTL         time.Duration
	OnExternalChange func(key string, value any)
}

// Row is one line of the options table.
type Row struct {
	catalog.Item
	Pinned bool
	Hidden bool
}

// Options edits pins, hides and popup settings.
type Options struct {
	catalog  *catalog.Catalog
	settings *settings.Settings
	sup      *suppress.Suppressor
	status   StatusSink
	onChange func(key string, value any)

	mu    sync.Mutex
	unsub func()
}

// NewOptions returns an editor that already follows external changes.
func NewOptions(cfg OptionsConfig) *Options {
	ttl := cfg.StoreTTL
	if ttl <= 0 {
		ttl = DefaultStoreTTL
	}
	o := &Options{
		catalog:  cfg.Catalog,
		sup:      suppress.New(suppress.WithTTL(ttl)),
		status:   cfg.Status,
		onChange: cfg.OnExternalChange,
	}
	if o.status == nil {
		o.status = nopStatus{}
	}
	o.settings = cfg.Settings.WithSuppressor(o.sup)
	if o.onChange != nil {
		o.unsub = o.settings.Store().OnChange(o.onStoreChange)
	}
	return o
}

func (o *Options) onStoreChange(changes map[string]store.Change, area store.Area) {
	if area != store.AreaSync {
		return
	}
	keys := lo.Keys(changes)
	slices.Sort(keys)
	for _, key := range keys {
		if !slices.Contains(settings.Keys, key) || o.sup.IsSuppressed(key) {
			continue
		}
		o.onChange(key, settings.Decode(key, changes[key].NewValue))
	}
}

// Rows lists every manageable item by name with its pin and hide flags.
func (o *Options) Rows(ctx context.Context) ([]Row, error) {
	items, err := o.catalog.List(ctx)
	if err != nil {
		o.status.Status(msgListFailed + err.Error())
		return nil, err
	}
	snap, err := o.settings.Load(ctx)
	if err != nil {
		o.status.Status(msgSettingsDown + err.Error())
	}

	items = compose.Sort(items, settings.SortNameAsc, nil)
	return lo.Map(items, func(it catalog.Item, _ int) Row {
		return Row{
			Item:   it,
			Pinned: slices.Contains(snap.Pinned, it.ID),
			Hidden: slices.Contains(snap.Hidden, it.ID),
		}
	}), nil
}

// SetPinned pins or unpins id.
func (o *Options) SetPinned(ctx context.Context, id string, pinned bool) error {
	_, err := o.settings.SetPinned(ctx, id, pinned)
	return o.report(err)
}

// SetHidden hides or unhides id.
func (o *Options) SetHidden(ctx context.Context, id string, hidden bool) error {
	_, err := o.settings.SetHidden(ctx, id, hidden)
	return o.report(err)
}

// SetSort stores the sort mode, keeping the other popup fields.
func (o *Options) SetSort(ctx context.Context, mode settings.SortMode) error {
	_, err := o.settings.UpdatePopup(ctx, func(p *settings.PopupSettings) { p.Sort = mode })
	return o.report(err)
}

// SetOnlyPinnedVisible stores the only-pinned flag, keeping Height and Sort.
func (o *Options) SetOnlyPinnedVisible(ctx context.Context, only bool) error {
	_, err := o.settings.UpdatePopup(ctx, func(p *settings.PopupSettings) { p.OnlyPinnedVisible = only })
	return o.report(err)
}

func (o *Options) report(err error) error {
	if err != nil {
		o.status.Status(msgSaveFailed + err.Error())
	}
	return err
}

// Close stops following external changes.
func (o *Options) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unsub != nil {
		o.unsub()
		o.unsub = nil
	}
}
