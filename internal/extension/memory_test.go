package extension

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHost(t *testing.T) {
	h := NewMemoryHost(
		Info{ID: "a", Name: "Alpha", Type: "extension", Enabled: true, MayDisable: true},
		Info{ID: "b", Name: "Beta", Type: "theme", MayDisable: true},
	)
	defer h.Close()
	ctx := context.Background()
	events := make(chan Event, 8)
	h.Subscribe(func(ev Event) { events <- ev })

	require.NoError(t, h.SetEnabled(ctx, "b", true))
	ev := waitEvent(t, events)
	assert.Equal(t, EventEnabled, ev.Kind)
	assert.Equal(t, "b", ev.Info.ID)
	assert.Equal(t, 1, h.Calls("b"))

	// Same state: no event, but the call is counted.
	require.NoError(t, h.SetEnabled(ctx, "b", true))
	assert.Equal(t, 2, h.Calls("b"))

	assert.ErrorIs(t, h.SetEnabled(ctx, "zzz", true), ErrNotInstalled)

	boom := errors.New("boom")
	h.FailOn("a", boom)
	assert.ErrorIs(t, h.SetEnabled(ctx, "a", false), boom)
	h.FailOn("a", nil)
	require.NoError(t, h.SetEnabled(ctx, "a", false))
	assert.Equal(t, EventDisabled, waitEvent(t, events).Kind)

	h.Uninstall("a")
	_, err := h.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotInstalled)

	list, err := h.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
}
