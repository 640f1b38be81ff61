// Package surface wires the engine into the two user-facing surfaces: the
// popup, which renders composed sections and applies optimistic patches,
// and the options editor, which edits settings and follows edits made
// elsewhere.
package surface

import (
	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/compose"
)

// Sections is the single hand-off from the engine to a renderer.
type Sections struct {
	Pinned         []catalog.Item
	Main           []catalog.Item
	OnlyPinnedMode bool
	Result         compose.Result
}

// Renderer draws what the engine composes. Calls may come from any
// goroutine but never concurrently for one popup.
type Renderer interface {
	OnComposed(Sections)
	OnItemPatched(catalog.Item)
}

// StatusSink receives actionable failures as one-line messages.
type StatusSink interface {
	Status(msg string)
}

// StatusFunc adapts a function to StatusSink.
type StatusFunc func(msg string)

func (f StatusFunc) Status(msg string) { f(msg) }

// Status messages shown to the user.
const (
	msgToggleFailed = "Toggle failed: "
	msgListFailed   = "Failed to list extensions: "
	msgSaveFailed   = "Failed to save settings: "
	msgSettingsDown = "Settings unavailable, using defaults: "
	msgProfileFail  = "Profile %s: %v"
	msgProfileSaved = "Saved profile %s"
	msgProfileDone  = "Applied profile %s"
	msgDefaultFail  = "Failed to create default profile: "
)

func sectionsOf(r compose.Result) Sections {
	return Sections{
		Pinned:         r.Pinned,
		Main:           r.Main,
		OnlyPinnedMode: r.Mode == compose.ModeOnlyPinned,
		Result:         r,
	}
}

type nopStatus struct{}

func (nopStatus) Status(string) {}
