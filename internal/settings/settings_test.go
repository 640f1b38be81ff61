package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentx-labs/extswitch/internal/store"
	"github.com/agentx-labs/extswitch/internal/suppress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettings(t *testing.T) (*Settings, store.Store, *suppress.Suppressor) {
	t.Helper()
	st := store.NewMemory(store.AreaSync)
	t.Cleanup(func() { st.Close() })
	sup := suppress.New()
	return New(st, sup), st, sup
}

func TestLoadDefaults(t *testing.T) {
	s, _, _ := newSettings(t)
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Pinned)
	assert.Empty(t, snap.Hidden)
	assert.Equal(t, PopupSettings{Height: 400, Sort: SortNameAsc}, snap.Popup)
	assert.Empty(t, snap.Profiles)
	assert.Equal(t, "", snap.Target)
}

func TestMalformedValuesFallBack(t *testing.T) {
	s, st, _ := newSettings(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, map[string]any{
		KeyPinned: "not-a-list",
		KeyHidden: []any{"a", 3},
		KeyPopup:  map[string]any{"height": 250, "sort": "random", "onlyPinnedVisible": true},
		KeyProfiles: map[string]any{
			"Work":   map[string]any{"a": true, "b": false},
			"Broken": map[string]any{"a": "yes"},
		},
		KeyTarget: 42,
	}))

	snap, issues, err := s.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Pinned)
	assert.Empty(t, snap.Hidden)
	assert.Equal(t, PopupSettings{Height: 250, Sort: SortNameAsc, OnlyPinnedVisible: true}, snap.Popup)
	assert.Equal(t, Profiles{"Work": {"a": true, "b": false}}, snap.Profiles)
	assert.Equal(t, "", snap.Target)

	keys := make([]string, len(issues))
	for i, is := range issues {
		keys[i] = is.Key
		assert.NotEmpty(t, is.Reason)
	}
	assert.ElementsMatch(t, []string{KeyPinned, KeyHidden, "popupSettings.sort", "profiles.Broken", KeyTarget}, keys)
}

func TestPinIsIdempotent(t *testing.T) {
	s, _, _ := newSettings(t)
	ctx := context.Background()

	_, err := s.SetPinned(ctx, "a", true)
	require.NoError(t, err)
	_, err = s.SetPinned(ctx, "b", true)
	require.NoError(t, err)
	got, err := s.SetPinned(ctx, "a", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got)

	got, err = s.SetPinned(ctx, "a", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got)

	stored, err := s.Pinned(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, stored)

	got, err = s.SetPinned(ctx, "b", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	_, err = s.SetPinned(ctx, "  ", true)
	assert.Error(t, err)
}

func TestDuplicatesAreDroppedOnRead(t *testing.T) {
	s, st, _ := newSettings(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, map[string]any{KeyHidden: []string{"x", "y", "x"}}))

	hidden, err := s.Hidden(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, hidden)
}

func TestWritesMarkSuppressor(t *testing.T) {
	s, _, sup := newSettings(t)
	ctx := context.Background()

	_, err := s.SetHidden(ctx, "a", true)
	require.NoError(t, err)
	assert.True(t, sup.IsSuppressed(KeyHidden))
	assert.False(t, sup.IsSuppressed(KeyPinned))

	require.NoError(t, s.SetTarget(ctx, "  abc "))
	assert.True(t, sup.IsSuppressed(KeyTarget))
	target, err := s.Target(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", target)
}

func TestUpdatePopupPreservesHeight(t *testing.T) {
	s, st, _ := newSettings(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, map[string]any{KeyPopup: map[string]any{"height": 520}}))

	p, err := s.UpdatePopup(ctx, func(p *PopupSettings) { p.OnlyPinnedVisible = true })
	require.NoError(t, err)
	assert.Equal(t, PopupSettings{Height: 520, Sort: SortNameAsc, OnlyPinnedVisible: true}, p)

	assert.Error(t, s.SetPopup(ctx, PopupSettings{Sort: "sideways"}))
}

func TestUnavailableStoreDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("popupSettings: {sort: [\n"), 0o600))
	st, err := store.NewFile(path, store.AreaSync)
	require.NoError(t, err)
	defer st.Close()
	s := New(st, nil)

	snap, err := s.Load(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Equal(t, DefaultPopupSettings(), snap.Popup)

	_, err = s.SetPinned(context.Background(), "a", true)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestReset(t *testing.T) {
	s, _, _ := newSettings(t)
	ctx := context.Background()
	_, err := s.SetPinned(ctx, "a", true)
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx, KeyPinned))

	pinned, err := s.Pinned(ctx)
	require.NoError(t, err)
	assert.Empty(t, pinned)
	assert.Error(t, s.Reset(ctx, "bogus"))
}

func TestDecodeForListeners(t *testing.T) {
	assert.Equal(t, []string{"a"}, Decode(KeyPinned, []any{"a", "a"}))
	assert.Equal(t, DefaultPopupSettings(), Decode(KeyPopup, nil))
	assert.Equal(t, "raw", Decode("unknown", "raw"))
}

func TestSortModeNext(t *testing.T) {
	assert.Equal(t, SortNameDesc, SortNameAsc.Next())
	assert.Equal(t, SortNameAsc, SortPinnedFirst.Next())
	assert.Equal(t, SortNameAsc, SortMode("bogus").Next())
}

func TestSuppressionExpires(t *testing.T) {
	st := store.NewMemory(store.AreaSync)
	defer st.Close()
	sup := suppress.New(suppress.WithTTL(30 * time.Millisecond))
	s := New(st, sup)

	_, err := s.SetPinned(context.Background(), "a", true)
	require.NoError(t, err)
	assert.True(t, sup.IsSuppressed(KeyPinned))
	assert.Eventually(t, func() bool { return !sup.IsSuppressed(KeyPinned) }, time.Second, 10*time.Millisecond)
}
