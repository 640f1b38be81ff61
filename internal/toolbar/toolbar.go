// Package toolbar is the one-click switch for a single configured target
// extension.
package toolbar

import (
	"context"
	"errors"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/settings"
)

// Reasons a Toggle did not happen.
const (
	ReasonNoID         = "no_id"
	ReasonNotInstalled = "not_installed"
	ReasonToggleFailed = "toggle_failed"
)

// Status describes the target extension.
type Status struct {
	HasID     bool   `json:"hasId"`
	Installed bool   `json:"installed"`
	Enabled   bool   `json:"enabled"`
	ID        string `json:"id"`
	Name      string `json:"name"`
}

// Result is the outcome of Toggle. Err is set with ReasonToggleFailed.
type Result struct {
	OK      bool   `json:"ok"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
	Err     error  `json:"-"`
}

// Toolbar toggles the extension stored under targetExtensionId.
type Toolbar struct {
	catalog  *catalog.Catalog
	settings *settings.Settings
}

// New returns a Toolbar.
func New(c *catalog.Catalog, s *settings.Settings) *Toolbar {
	return &Toolbar{catalog: c, settings: s}
}

// Target returns the configured id, empty when unset.
func (t *Toolbar) Target(ctx context.Context) (string, error) {
	return t.settings.Target(ctx)
}

// SetTarget stores id, trimmed. An empty id clears the target.
func (t *Toolbar) SetTarget(ctx context.Context, id string) error {
	return t.settings.SetTarget(ctx, id)
}

// Status reports whether a target is set, installed and enabled.
func (t *Toolbar) Status(ctx context.Context) (Status, error) {
	id, err := t.Target(ctx)
	if err != nil {
		return Status{}, err
	}
	st := Status{HasID: id != "", ID: id}
	if !st.HasID {
		return st, nil
	}
	item, err := t.catalog.Get(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.Installed = true
	st.Enabled = item.Enabled
	st.Name = item.Name
	return st, nil
}

// Toggle flips the target's enabled state.
func (t *Toolbar) Toggle(ctx context.Context) Result {
	id, err := t.Target(ctx)
	if err != nil {
		return Result{Reason: ReasonToggleFailed, Err: err}
	}
	if id == "" {
		return Result{Reason: ReasonNoID}
	}
	item, err := t.catalog.Get(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return Result{Reason: ReasonNotInstalled}
	}
	if err != nil {
		return Result{Reason: ReasonToggleFailed, Err: err}
	}
	if err := t.catalog.SetEnabled(ctx, id, !item.Enabled); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Result{Reason: ReasonNotInstalled}
		}
		return Result{Reason: ReasonToggleFailed, Err: err}
	}
	return Result{OK: true, Enabled: !item.Enabled}
}
