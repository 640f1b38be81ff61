// Package tui is the terminal popup: a bubbletea program that renders the
// composed sections and maps keys to popup actions.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/compose"
	"github.com/agentx-labs/extswitch/internal/settings"
	"github.com/agentx-labs/extswitch/internal/surface"
)

// Actions is the part of the popup the model drives.
type Actions interface {
	Start(ctx context.Context) error
	Refresh()
	Settings() settings.Snapshot
	Toggle(ctx context.Context, id string) error
	TogglePin(ctx context.Context, id string) error
	Hide(ctx context.Context, id string) error
	CycleSort(ctx context.Context) error
	ToggleOnlyPinned(ctx context.Context) error
}

const helpLine = "j/k move  space toggle  p pin  h hide  s sort  o only pinned  r refresh  q quit"

// Model is the bubbletea model for the popup.
type Model struct {
	ctx     context.Context
	actions Actions
	th      theme

	sections surface.Sections
	ready    bool
	cursor   int
	status   string
	width    int
}

// New returns a model driving actions.
func New(ctx context.Context, actions Actions) Model {
	return Model{ctx: ctx, actions: actions, th: defaultTheme()}
}

// Init starts the popup; its first composition arrives as a message.
func (m Model) Init() tea.Cmd {
	return m.do(m.actions.Start)
}

// Update applies popup messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case composedMsg:
		m.sections = surface.Sections(msg)
		m.ready = true
		m.clamp()
	case patchedMsg:
		m.patch(catalog.Item(msg))
	case statusMsg:
		m.status = string(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		return m.key(msg)
	}
	return m, nil
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if msg.Type == tea.KeySpace {
		k = " "
	}
	switch k {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		m.cursor++
		m.clamp()
		return m, nil
	case "k", "up":
		m.cursor--
		m.clamp()
		return m, nil
	case "s":
		return m, m.do(m.actions.CycleSort)
	case "o":
		return m, m.do(m.actions.ToggleOnlyPinned)
	case "r":
		return m, func() tea.Msg {
			m.actions.Refresh()
			return nil
		}
	}

	id, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch k {
	case " ", "enter":
		return m, m.doID(m.actions.Toggle, id)
	case "p":
		return m, m.doID(m.actions.TogglePin, id)
	case "h":
		return m, m.doID(m.actions.Hide, id)
	}
	return m, nil
}

// Failures are reported through the status sink, so commands return nothing.
func (m Model) do(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		_ = fn(ctx)
		return nil
	}
}

func (m Model) doID(fn func(context.Context, string) error, id string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		_ = fn(ctx, id)
		return nil
	}
}

func (m *Model) clamp() {
	n := len(m.sections.Result.Items())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (string, bool) {
	items := m.sections.Result.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return "", false
	}
	return items[m.cursor].ID, true
}

// patch replaces the item in place so the row keeps its position.
func (m *Model) patch(it catalog.Item) {
	r := m.sections.Result
	r.Pinned = replace(r.Pinned, it)
	r.Main = replace(r.Main, it)
	m.sections.Result = r
	m.sections.Pinned = r.Pinned
	m.sections.Main = r.Main
}

func replace(items []catalog.Item, it catalog.Item) []catalog.Item {
	out := make([]catalog.Item, len(items))
	for i, cur := range items {
		if cur.ID == it.ID {
			cur = it
		}
		out[i] = cur
	}
	return out
}

// View renders the popup.
func (m Model) View() string {
	if !m.ready {
		return m.th.Muted.Render("Loading extensions...") + "\n"
	}

	var b strings.Builder
	snap := m.actions.Settings()
	b.WriteString(m.th.Header.Render("Extensions"))
	b.WriteString(m.th.Muted.Render(fmt.Sprintf("  sort: %s  mode: %s", snap.Popup.Sort, m.sections.Result.Mode)))
	b.WriteString("\n\n")

	r := m.sections.Result
	row := 0
	if r.ShowPinnedHeading {
		b.WriteString(m.th.Heading.Render(compose.PinnedHeading))
		b.WriteString("\n")
	}
	for _, it := range r.Pinned {
		b.WriteString(m.line(it, row, true))
		row++
	}
	if r.ShowMainHeading {
		if len(r.Pinned) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.th.Heading.Render(compose.MainHeading))
		b.WriteString("\n")
	}
	if r.Empty {
		b.WriteString(m.th.Muted.Render(compose.Placeholder))
		b.WriteString("\n")
	}
	for _, it := range r.Main {
		b.WriteString(m.line(it, row, false))
		row++
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.th.Status.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.th.Muted.Render(helpLine))

	frame := m.th.Frame
	if m.width > 4 {
		frame = frame.Width(m.width - 2)
	}
	return frame.Render(b.String()) + "\n"
}

func (m Model) line(it catalog.Item, row int, pinned bool) string {
	cursor := "  "
	if row == m.cursor {
		cursor = m.th.Cursor.Render("> ")
	}
	box := m.th.Disabled.Render("[ ]")
	if it.Enabled {
		box = m.th.Enabled.Render("[x]")
	}
	mark := ""
	if pinned {
		mark = " *"
	}
	return fmt.Sprintf("%s%s %s %s%s\n", cursor, box, it.Name, m.th.Muted.Render("("+it.ID+")"), mark)
}

// Run starts the program and blocks until the user quits. popup must have
// been built with bridge as its Renderer and Status sink.
func Run(ctx context.Context, popup *surface.Popup, bridge *Bridge, opts ...tea.ProgramOption) error {
	defer popup.Close()
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, popup), opts...)
	bridge.Attach(p.Send)
	_, err := p.Run()
	return err
}
