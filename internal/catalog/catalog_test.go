package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentx-labs/extswitch/internal/extension"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHost(t *testing.T) *extension.MemoryHost {
	t.Helper()
	h := extension.NewMemoryHost(
		extension.Info{ID: "extswitch", Name: "ExtSwitch", Type: "extension", Enabled: true, MayDisable: true},
		extension.Info{ID: "a", Name: "Alpha", Type: "extension", Enabled: true, MayDisable: true,
			Icons: []extension.Icon{{Size: 16, URL: "a16.png"}, {Size: 128, URL: "a128.png"}}},
		extension.Info{ID: "t", Name: "Theme", Type: "theme", MayDisable: true},
		extension.Info{ID: "p", Name: "Packaged", Type: "packaged_app", Enabled: true, MayDisable: true},
		extension.Info{ID: "h", Name: "Hosted", Type: "hosted_app", Enabled: true, MayDisable: true},
		extension.Info{ID: "l", Name: "Login", Type: "login_item", Enabled: true, MayDisable: true},
		extension.Info{ID: "locked", Name: "Locked", Type: "extension", Enabled: true},
	)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestList_FiltersSelfAndKinds(t *testing.T) {
	c := New(newHost(t), "extswitch")
	items, err := c.List(context.Background())
	require.NoError(t, err)

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"a", "t", "p", "h", "locked"}, ids)
	assert.Equal(t, "a128.png", items[0].IconURL)
	assert.Equal(t, "", items[1].IconURL)
	assert.Equal(t, "theme", items[1].Kind)
}

func TestList_IsLive(t *testing.T) {
	h := newHost(t)
	c := New(h, "extswitch")
	ctx := context.Background()

	require.NoError(t, h.SetEnabled(ctx, "a", false))
	items, err := c.List(ctx)
	require.NoError(t, err)
	assert.False(t, items[0].Enabled)
}

func TestSetEnabled_Errors(t *testing.T) {
	h := newHost(t)
	c := New(h, "extswitch")
	ctx := context.Background()

	tests := []struct {
		id      string
		enabled bool
		want    error
	}{
		{"missing", true, ErrNotFound},
		{"extswitch", false, ErrNotFound},
		{"locked", false, ErrOperationFailed},
		{"", true, ErrNotConfigured},
	}
	for _, tt := range tests {
		err := c.SetEnabled(ctx, tt.id, tt.enabled)
		assert.ErrorIs(t, err, tt.want, "SetEnabled(%q)", tt.id)

		var ie *ItemError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, tt.id, ie.ID)
	}

	h.FailOn("a", errors.New("policy"))
	err := c.SetEnabled(ctx, "a", false)
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.Contains(t, err.Error(), "policy")

	assert.NoError(t, c.SetEnabled(ctx, "t", true))
}

func TestGet(t *testing.T) {
	c := New(newHost(t), "extswitch")
	ctx := context.Background()

	it, err := c.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "Packaged", it.Name)

	_, err = c.Get(ctx, "l")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get(ctx, "extswitch")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscribe_DropsSelf(t *testing.T) {
	h := newHost(t)
	c := New(h, "extswitch")
	ctx := context.Background()

	events := make(chan Event, 8)
	unsub := c.Subscribe(func(ev Event) { events <- ev })
	defer unsub()

	require.NoError(t, h.SetEnabled(ctx, "extswitch", false))
	require.NoError(t, h.SetEnabled(ctx, "l", false))
	require.NoError(t, h.SetEnabled(ctx, "a", false))

	select {
	case ev := <-events:
		assert.Equal(t, "a", ev.Item.ID)
		assert.False(t, ev.Enabled)
	case <-time.After(3 * time.Second):
		t.Fatal("no event")
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event for %s", ev.Item.ID)
	case <-time.After(100 * time.Millisecond):
	}
}
