package settings

import "slices"

// Persisted keys.
const (
	KeyPinned   = "pinnedExtensionIds"
	KeyHidden   = "hiddenExtensionIds"
	KeyPopup    = "popupSettings"
	KeyProfiles = "profiles"
	KeyTarget   = "targetExtensionId"
)

// Keys lists every persisted key.
var Keys = []string{KeyPinned, KeyHidden, KeyPopup, KeyProfiles, KeyTarget}

// ViewKeys are the keys that change what the popup shows.
var ViewKeys = []string{KeyPinned, KeyHidden, KeyPopup}

// SortMode orders the main section.
type SortMode string

const (
	SortNameAsc      SortMode = "name_asc"
	SortNameDesc     SortMode = "name_desc"
	SortEnabledFirst SortMode = "enabled_first"
	SortPinnedFirst  SortMode = "pinned_first"
)

// SortModes lists the modes in cycle order.
var SortModes = []SortMode{SortNameAsc, SortNameDesc, SortEnabledFirst, SortPinnedFirst}

// Valid reports whether m is a known mode.
func (m SortMode) Valid() bool { return slices.Contains(SortModes, m) }

// Next returns the mode after m, wrapping around.
func (m SortMode) Next() SortMode {
	i := slices.Index(SortModes, m)
	return SortModes[(i+1)%len(SortModes)]
}

// DefaultHeight is kept for settings written by older popups; nothing
// reads it for layout.
const DefaultHeight = 400

// PopupSettings controls ordering and visibility in the popup.
type PopupSettings struct {
	Height            int      `json:"height" yaml:"height"`
	Sort              SortMode `json:"sort" yaml:"sort"`
	OnlyPinnedVisible bool     `json:"onlyPinnedVisible" yaml:"only_pinned_visible"`
}

// DefaultPopupSettings returns the settings used when nothing valid is stored.
func DefaultPopupSettings() PopupSettings {
	return PopupSettings{Height: DefaultHeight, Sort: SortNameAsc}
}

// DefaultProfile is the profile synthesized from live state on first start.
const DefaultProfile = "Default"

// Profile maps extension id to its enabled state.
type Profile map[string]bool

// Profiles maps profile name to profile.
type Profiles map[string]Profile

// Snapshot is one consistent read of every key.
type Snapshot struct {
	Pinned   []string
	Hidden   []string
	Popup    PopupSettings
	Profiles Profiles
	Target   string
}
