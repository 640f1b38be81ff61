package compose

import (
	"strings"

	"github.com/agentx-labs/extswitch/internal/catalog"
)

// Placeholder is shown instead of an empty list.
const Placeholder = "No extensions found"

// Section headings.
const (
	PinnedHeading = "Pinned"
	MainHeading   = "Extensions"
)

// Render formats a Result as plain text for the terminal, one item per line.
func Render(r Result) string {
	var b strings.Builder

	if r.ShowPinnedHeading {
		b.WriteString("## ")
		b.WriteString(PinnedHeading)
		b.WriteString("\n")
	}
	for _, it := range r.Pinned {
		writeItem(&b, it, true)
	}

	if r.Mode == ModeOnlyPinned {
		if r.Empty {
			b.WriteString(Placeholder)
			b.WriteString("\n")
		}
		return b.String()
	}

	if r.ShowMainHeading {
		if len(r.Pinned) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## ")
		b.WriteString(MainHeading)
		b.WriteString("\n")
	}
	if r.Empty {
		b.WriteString(Placeholder)
		b.WriteString("\n")
	}
	for _, it := range r.Main {
		writeItem(&b, it, false)
	}
	return b.String()
}

func writeItem(b *strings.Builder, it catalog.Item, pinned bool) {
	if it.Enabled {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}
	b.WriteString(it.Name)
	b.WriteString(" (")
	b.WriteString(it.ID)
	b.WriteString(")")
	if pinned {
		b.WriteString(" *")
	}
	b.WriteString("\n")
}
