package settings

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"
)

// Issue describes a stored value that was replaced by its default.
type Issue struct {
	Key    string
	Reason string
}

func rawDefaults() map[string]any {
	return map[string]any{
		KeyPinned:   []any{},
		KeyHidden:   []any{},
		KeyPopup:    map[string]any{},
		KeyProfiles: map[string]any{},
		KeyTarget:   "",
	}
}

// DecodeIDs validates an id list; a malformed list reads as empty. Duplicates
// are dropped, first occurrence wins.
func DecodeIDs(key string, raw any) ([]string, []Issue) {
	raw = plain(raw)
	if raw == nil {
		return []string{}, nil
	}
	if ok, reason := check(defIDList, raw); !ok {
		return []string{}, []Issue{{Key: key, Reason: reason}}
	}
	list := raw.([]any)
	ids := lo.Map(list, func(v any, _ int) string { return v.(string) })
	return lo.Uniq(ids), nil
}

// DecodePopup merges the stored object field by field over the defaults.
func DecodePopup(raw any) (PopupSettings, []Issue) {
	raw = plain(raw)
	out := DefaultPopupSettings()
	if raw == nil {
		return out, nil
	}
	if ok, reason := check(defPopupSettings, raw); !ok {
		return out, []Issue{{Key: KeyPopup, Reason: reason}}
	}
	obj := raw.(map[string]any)

	var issues []Issue
	field := func(name, def string, apply func(v any)) {
		v, present := obj[name]
		if !present {
			return
		}
		if ok, reason := check(def, v); !ok {
			issues = append(issues, Issue{Key: KeyPopup + "." + name, Reason: reason})
			return
		}
		apply(v)
	}
	field("height", defHeight, func(v any) { out.Height = int(v.(float64)) })
	field("sort", defSort, func(v any) { out.Sort = SortMode(v.(string)) })
	field("onlyPinnedVisible", defOnlyPinnedVisible, func(v any) { out.OnlyPinnedVisible = v.(bool) })
	return out, issues
}

// DecodeProfiles keeps every well-formed profile and drops the rest.
func DecodeProfiles(raw any) (Profiles, []Issue) {
	raw = plain(raw)
	out := Profiles{}
	if raw == nil {
		return out, nil
	}
	if ok, reason := check(defProfiles, raw); !ok {
		return out, []Issue{{Key: KeyProfiles, Reason: reason}}
	}

	var issues []Issue
	for name, v := range raw.(map[string]any) {
		if strings.TrimSpace(name) == "" {
			issues = append(issues, Issue{Key: KeyProfiles, Reason: printer.Sprintf("profile with empty name dropped")})
			continue
		}
		if ok, reason := check(defProfile, v); !ok {
			issues = append(issues, Issue{Key: KeyProfiles + "." + name, Reason: reason})
			continue
		}
		p := Profile{}
		for id, enabled := range v.(map[string]any) {
			p[id] = enabled.(bool)
		}
		out[name] = p
	}
	return out, issues
}

// DecodeTarget returns the trimmed target id, empty when unset or malformed.
func DecodeTarget(raw any) (string, []Issue) {
	raw = plain(raw)
	if raw == nil {
		return "", nil
	}
	if ok, reason := check(defTarget, raw); !ok {
		return "", []Issue{{Key: KeyTarget, Reason: reason}}
	}
	return strings.TrimSpace(raw.(string)), nil
}

// Decode returns the typed, defaulted value for key, for change listeners.
// Unknown keys are returned unchanged.
func Decode(key string, raw any) any {
	switch key {
	case KeyPinned, KeyHidden:
		v, _ := DecodeIDs(key, raw)
		return v
	case KeyPopup:
		v, _ := DecodePopup(raw)
		return v
	case KeyProfiles:
		v, _ := DecodeProfiles(raw)
		return v
	case KeyTarget:
		v, _ := DecodeTarget(raw)
		return v
	}
	return raw
}

func decodeAll(raw map[string]any) (Snapshot, []Issue) {
	var snap Snapshot
	var all, issues []Issue
	snap.Pinned, issues = DecodeIDs(KeyPinned, raw[KeyPinned])
	all = append(all, issues...)
	snap.Hidden, issues = DecodeIDs(KeyHidden, raw[KeyHidden])
	all = append(all, issues...)
	snap.Popup, issues = DecodePopup(raw[KeyPopup])
	all = append(all, issues...)
	snap.Profiles, issues = DecodeProfiles(raw[KeyProfiles])
	all = append(all, issues...)
	snap.Target, issues = DecodeTarget(raw[KeyTarget])
	all = append(all, issues...)
	return snap, all
}

// plain converts typed Go values (such as []string) into the generic JSON
// form the decoders assert on. Values read from a store already are.
func plain(v any) any {
	switch v.(type) {
	case nil, string, bool, float64:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
