package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/agentx-labs/extswitch/internal/store"
	"github.com/agentx-labs/extswitch/internal/suppress"
)

// Settings reads and writes the persisted keys of one store.
type Settings struct {
	store store.Store
	sup   *suppress.Suppressor
}

// New returns a Settings over st. sup may be nil when the caller does not
// listen to its own writes.
func New(st store.Store, sup *suppress.Suppressor) *Settings {
	return &Settings{store: st, sup: sup}
}

// Store returns the underlying store.
func (s *Settings) Store() store.Store { return s.store }

// WithSuppressor returns a Settings sharing the store but marking writes in sup.
func (s *Settings) WithSuppressor(sup *suppress.Suppressor) *Settings {
	return &Settings{store: s.store, sup: sup}
}

// Load reads every key. When the store is unavailable the defaults are
// returned together with the error, so callers can keep rendering.
func (s *Settings) Load(ctx context.Context) (Snapshot, error) {
	snap, _, err := s.Check(ctx)
	return snap, err
}

// Check is Load plus the list of stored values that were replaced by
// defaults.
func (s *Settings) Check(ctx context.Context) (Snapshot, []Issue, error) {
	raw, err := s.store.Get(ctx, rawDefaults())
	if err != nil && !errors.Is(err, store.ErrUnavailable) {
		snap, _ := decodeAll(rawDefaults())
		return snap, nil, fmt.Errorf("reading settings: %w", err)
	}
	snap, issues := decodeAll(raw)
	if err != nil {
		return snap, issues, fmt.Errorf("reading settings: %w", err)
	}
	return snap, issues, nil
}

func (s *Settings) get(ctx context.Context, key string) (any, error) {
	raw, err := s.store.Get(ctx, map[string]any{key: nil})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return raw[key], nil
}

// Pinned returns the pinned ids, most recently pinned first.
func (s *Settings) Pinned(ctx context.Context) ([]string, error) {
	raw, err := s.get(ctx, KeyPinned)
	ids, _ := DecodeIDs(KeyPinned, raw)
	return ids, err
}

// Hidden returns the hidden ids.
func (s *Settings) Hidden(ctx context.Context) ([]string, error) {
	raw, err := s.get(ctx, KeyHidden)
	ids, _ := DecodeIDs(KeyHidden, raw)
	return ids, err
}

// Popup returns the popup settings merged over the defaults.
func (s *Settings) Popup(ctx context.Context) (PopupSettings, error) {
	raw, err := s.get(ctx, KeyPopup)
	p, _ := DecodePopup(raw)
	return p, err
}

// Profiles returns every well-formed profile.
func (s *Settings) Profiles(ctx context.Context) (Profiles, error) {
	raw, err := s.get(ctx, KeyProfiles)
	p, _ := DecodeProfiles(raw)
	return p, err
}

// Target returns the trimmed toolbar target id.
func (s *Settings) Target(ctx context.Context) (string, error) {
	raw, err := s.get(ctx, KeyTarget)
	id, _ := DecodeTarget(raw)
	return id, err
}

func (s *Settings) set(ctx context.Context, key string, value any) error {
	if s.sup != nil {
		s.sup.Mark(key)
	}
	if err := s.store.Set(ctx, map[string]any{key: value}); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// SetPinned pins or unpins id and returns the resulting list. Pinning puts
// id first; pinning an already pinned id changes nothing.
func (s *Settings) SetPinned(ctx context.Context, id string, pinned bool) ([]string, error) {
	return s.toggleID(ctx, KeyPinned, id, pinned)
}

// SetHidden hides or unhides id and returns the resulting list.
func (s *Settings) SetHidden(ctx context.Context, id string, hidden bool) ([]string, error) {
	return s.toggleID(ctx, KeyHidden, id, hidden)
}

func (s *Settings) toggleID(ctx context.Context, key, id string, member bool) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("saving %s: empty id", key)
	}
	raw, err := s.get(ctx, key)
	if err != nil {
		// Writing over an unreadable store would drop its contents.
		return nil, err
	}
	cur, _ := DecodeIDs(key, raw)

	next, changed := applyMembership(cur, id, member)
	if !changed {
		return cur, nil
	}
	if err := s.set(ctx, key, next); err != nil {
		return cur, err
	}
	return next, nil
}

func applyMembership(cur []string, id string, member bool) ([]string, bool) {
	has := slices.Contains(cur, id)
	switch {
	case member && !has:
		return append([]string{id}, cur...), true
	case !member && has:
		return slices.DeleteFunc(slices.Clone(cur), func(x string) bool { return x == id }), true
	}
	return cur, false
}

// SetPopup stores p after validating it.
func (s *Settings) SetPopup(ctx context.Context, p PopupSettings) error {
	if !p.Sort.Valid() {
		return fmt.Errorf("saving %s: unknown sort mode %q", KeyPopup, p.Sort)
	}
	if p.Height <= 0 {
		p.Height = DefaultHeight
	}
	return s.set(ctx, KeyPopup, p)
}

// UpdatePopup applies fn to the current popup settings and stores the result.
// Fields fn does not touch, such as Height, are preserved.
func (s *Settings) UpdatePopup(ctx context.Context, fn func(*PopupSettings)) (PopupSettings, error) {
	p, err := s.Popup(ctx)
	if err != nil {
		return p, err
	}
	fn(&p)
	if err := s.SetPopup(ctx, p); err != nil {
		return p, err
	}
	return p, nil
}

// SetProfiles replaces the whole profiles object.
func (s *Settings) SetProfiles(ctx context.Context, p Profiles) error {
	if p == nil {
		p = Profiles{}
	}
	return s.set(ctx, KeyProfiles, p)
}

// SetTarget stores the trimmed toolbar target id.
func (s *Settings) SetTarget(ctx context.Context, id string) error {
	return s.set(ctx, KeyTarget, strings.TrimSpace(id))
}

// Reset writes the defaults for the given keys, or for every key when none
// is given.
func (s *Settings) Reset(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		keys = Keys
	}
	defaults := map[string]any{
		KeyPinned:   []string{},
		KeyHidden:   []string{},
		KeyPopup:    DefaultPopupSettings(),
		KeyProfiles: Profiles{},
		KeyTarget:   "",
	}
	values := make(map[string]any, len(keys))
	for _, k := range keys {
		v, ok := defaults[k]
		if !ok {
			return fmt.Errorf("unknown settings key %q", k)
		}
		if s.sup != nil {
			s.sup.Mark(k)
		}
		values[k] = v
	}
	if err := s.store.Set(ctx, values); err != nil {
		return fmt.Errorf("resetting settings: %w", err)
	}
	return nil
}
