package extension

import (
	"context"
	"errors"
	"slices"
)

var (
	// ErrNotInstalled reports an id the host does not know.
	ErrNotInstalled = errors.New("extension not installed")
	// ErrNotPermitted reports a state change the host refuses, such as
	// disabling a policy-installed extension.
	ErrNotPermitted = errors.New("operation not permitted")
)

// Icon is one icon declared by an extension.
type Icon struct {
	Size int
	URL  string
}

// Info is the host's view of one installed extension.
type Info struct {
	ID         string
	Name       string
	Version    string
	Type       string
	Enabled    bool
	MayDisable bool
	Icons      []Icon
}

func (i Info) equal(o Info) bool {
	return i.ID == o.ID && i.Name == o.Name && i.Version == o.Version && i.Type == o.Type &&
		i.Enabled == o.Enabled && i.MayDisable == o.MayDisable && slices.Equal(i.Icons, o.Icons)
}

// EventKind says what happened to an extension.
type EventKind int

const (
	EventEnabled EventKind = iota
	EventDisabled
	EventInstalled
	EventUninstalled
	EventUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventEnabled:
		return "enabled"
	case EventDisabled:
		return "disabled"
	case EventInstalled:
		return "installed"
	case EventUninstalled:
		return "uninstalled"
	case EventUpdated:
		return "updated"
	}
	return "unknown"
}

// Event is fired after an extension changed, whoever changed it. For
// EventUninstalled, Info is the last state seen.
type Event struct {
	Kind EventKind
	Info Info
}

// Host is the management interface of the platform.
type Host interface {
	List(ctx context.Context) ([]Info, error)
	Get(ctx context.Context, id string) (Info, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Subscribe(fn func(Event)) (unsubscribe func())
}
