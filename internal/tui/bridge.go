package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/surface"
)

type composedMsg surface.Sections

type patchedMsg catalog.Item

type statusMsg string

// Bridge forwards popup callbacks into a running program. It satisfies
// surface.Renderer and surface.StatusSink; messages sent before Attach are
// dropped.
type Bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewBridge returns an unattached bridge.
func NewBridge() *Bridge { return &Bridge{} }

// Attach routes messages to send, usually (*tea.Program).Send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *Bridge) emit(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (b *Bridge) OnComposed(s surface.Sections) { b.emit(composedMsg(s)) }
func (b *Bridge) OnItemPatched(it catalog.Item) { b.emit(patchedMsg(it)) }
func (b *Bridge) Status(msg string) { b.emit(statusMsg(msg)) }
