// Package catalog is the live list of items the user can manage: every
// installed extension of a manageable kind except extswitch itself. It is
// never cached; each List reflects the host at the moment of the call.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/agentx-labs/extswitch/internal/extension"
	"github.com/agentx-labs/extswitch/internal/manifest"
	"github.com/samber/lo"
)

var (
	// ErrNotFound reports an id that is not currently installed.
	ErrNotFound = errors.New("not found")
	// ErrOperationFailed reports a host-side refusal of an enable/disable.
	ErrOperationFailed = errors.New("operation failed")
	// ErrNotConfigured reports that there is nothing to act on: no target
	// id, or no manageable items.
	ErrNotConfigured = errors.New("not configured")
)

// Item is one manageable extension as shown to the user.
type Item struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	IconURL string `json:"iconUrl,omitempty" yaml:"icon_url,omitempty"`
	Kind    string `json:"kind" yaml:"kind"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// ItemError is the error returned for a failed per-item operation. It
// wraps ErrNotFound or ErrOperationFailed together with the host error.
type ItemError struct {
	ID  string
	Op  string
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Catalog adapts a Host to the items the user may manage.
type Catalog struct {
	host   extension.Host
	selfID string
}

// New returns a catalog over host that never lists selfID.
func New(host extension.Host, selfID string) *Catalog {
	return &Catalog{host: host, selfID: selfID}
}

// SelfID returns the id excluded from every listing.
func (c *Catalog) SelfID() string { return c.selfID }

// Manageable reports whether an extension of the given type is listed.
func Manageable(kind string) bool {
	return slices.Contains(manifest.ManageableTypes, kind)
}

// List queries the host and returns the manageable items in host order.
func (c *Catalog) List(ctx context.Context) ([]Item, error) {
	infos, err := c.host.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing extensions: %w", err)
	}
	infos = lo.Filter(infos, func(info extension.Info, _ int) bool {
		return info.ID != c.selfID && Manageable(info.Type)
	})
	return lo.Map(infos, func(info extension.Info, _ int) Item { return toItem(info) }), nil
}

// Get returns one manageable item.
func (c *Catalog) Get(ctx context.Context, id string) (Item, error) {
	if id == "" {
		return Item{}, &ItemError{ID: id, Op: "get", Err: ErrNotConfigured}
	}
	if id == c.selfID {
		return Item{}, &ItemError{ID: id, Op: "get", Err: ErrNotFound}
	}
	info, err := c.host.Get(ctx, id)
	if err != nil {
		return Item{}, classify(id, "get", err)
	}
	if !Manageable(info.Type) {
		return Item{}, &ItemError{ID: id, Op: "get", Err: ErrNotFound}
	}
	return toItem(info), nil
}

// SetEnabled asks the host to change id's enabled state.
func (c *Catalog) SetEnabled(ctx context.Context, id string, enabled bool) error {
	op := "disable"
	if enabled {
		op = "enable"
	}
	if id == "" {
		return &ItemError{ID: id, Op: op, Err: ErrNotConfigured}
	}
	if id == c.selfID {
		return &ItemError{ID: id, Op: op, Err: ErrNotFound}
	}
	if err := c.host.SetEnabled(ctx, id, enabled); err != nil {
		return classify(id, op, err)
	}
	return nil
}

// Event is a host notification for a manageable item: a state change, an
// install, a removal or a manifest edit. Enabled is the item's state after it.
type Event struct {
	Enabled bool
	Item    Item
}

// Subscribe forwards host events, dropping those for extswitch itself and
// for kinds that are never listed.
func (c *Catalog) Subscribe(fn func(Event)) func() {
	return c.host.Subscribe(func(ev extension.Event) {
		if ev.Info.ID == c.selfID || !Manageable(ev.Info.Type) {
			return
		}
		fn(Event{Enabled: ev.Info.Enabled, Item: toItem(ev.Info)})
	})
}

func classify(id, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ItemError{ID: id, Op: op, Err: err}
	}
	if errors.Is(err, extension.ErrNotInstalled) {
		return &ItemError{ID: id, Op: op, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	}
	return &ItemError{ID: id, Op: op, Err: fmt.Errorf("%w: %w", ErrOperationFailed, err)}
}

// toItem uses the last declared icon, which manifests list largest last.
func toItem(info extension.Info) Item {
	item := Item{
		ID:      info.ID,
		Name:    info.Name,
		Enabled: info.Enabled,
		Kind:    info.Type,
		Version: info.Version,
	}
	item.IconURL = lo.LastOrEmpty(info.Icons).URL
	return item
}
