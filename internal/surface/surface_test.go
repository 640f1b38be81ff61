package surface

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/compose"
	"github.com/agentx-labs/extswitch/internal/extension"
	"github.com/agentx-labs/extswitch/internal/metrics"
	"github.com/agentx-labs/extswitch/internal/settings"
	"github.com/agentx-labs/extswitch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	composed chan Sections
	patched  chan catalog.Item
}

func newRenderer() *fakeRenderer {
	return &fakeRenderer{composed: make(chan Sections, 64), patched: make(chan catalog.Item, 64)}
}

func (r *fakeRenderer) OnComposed(s Sections) { r.composed <- s }
func (r *fakeRenderer) OnItemPatched(it catalog.Item) { r.patched <- it }

func (r *fakeRenderer) next(t *testing.T) Sections {
	t.Helper()
	select {
	case s := <-r.composed:
		return s
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a composition")
		return Sections{}
	}
}

func (r *fakeRenderer) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case s := <-r.composed:
		t.Fatalf("unexpected composition: %+v", s.Result)
	case <-time.After(d):
	}
}

type statusLog struct {
	mu   sync.Mutex
	msgs []string
}

func (l *statusLog) Status(msg string) {
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}

func (l *statusLog) has(prefix string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.msgs {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

func ext(id, name string, enabled bool) extension.Info {
	return extension.Info{ID: id, Name: name, Type: "extension", Enabled: enabled, MayDisable: true}
}

type env struct {
	host   *extension.MemoryHost
	store  store.Store
	cat    *catalog.Catalog
	set    *settings.Settings
	render *fakeRenderer
	status *statusLog
	popup  *Popup
}

func newEnv(t *testing.T, host extension.Host) *env {
	t.Helper()
	e := &env{store: store.NewMemory(store.AreaSync), render: newRenderer(), status: &statusLog{}}
	if host == nil {
		e.host = extension.NewMemoryHost(ext("self", "ExtSwitch", true), ext("a", "Alpha", true), ext("b", "Bravo", false), ext("c", "Charlie", true))
		host = e.host
		t.Cleanup(func() { e.host.Close() })
	}
	e.cat = catalog.New(host, "self")
	e.set = settings.New(e.store, nil)
	e.popup = NewPopup(PopupConfig{
		Catalog:  e.cat,
		Settings: e.set,
		Renderer: e.render,
		Status:   e.status,
		Delay:    20 * time.Millisecond,
		Metrics:  metrics.New(),
	})
	t.Cleanup(func() {
		e.popup.Close()
		e.store.Close()
	})
	return e
}

func ids(items []catalog.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestPopupStartRendersAndCreatesDefault(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, e.popup.Start(ctx))

	s := e.render.next(t)
	assert.Equal(t, compose.ModeFlat, s.Result.Mode)
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Main))
	assert.False(t, s.OnlyPinnedMode)

	profiles, err := e.set.Profiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.Profile{"a": true, "b": false, "c": true}, profiles[settings.DefaultProfile])
}

func TestPopupToggleIsOptimisticAndSuppressesEcho(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, e.popup.Start(ctx))
	e.render.next(t)

	require.NoError(t, e.popup.Toggle(ctx, "b"))
	select {
	case it := <-e.render.patched:
		assert.Equal(t, "b", it.ID)
		assert.True(t, it.Enabled)
	case <-time.After(time.Second):
		t.Fatal("no optimistic patch")
	}
	// The host's enabled event for b is our own echo.
	e.render.quiet(t, 300*time.Millisecond)

	item, err := e.cat.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, item.Enabled)
	assert.True(t, e.popup.Last().Main[1].Enabled)
}

func TestPopupFollowsExternalHostChange(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, e.popup.Start(ctx))
	e.render.next(t)

	require.NoError(t, e.host.SetEnabled(ctx, "a", false))
	s := e.render.next(t)
	assert.False(t, s.Main[0].Enabled)
}

func TestPopupFollowsExternalSettingsChange(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, e.popup.Start(ctx))
	e.render.next(t)

	// Another surface pins c.
	_, err := e.set.SetPinned(ctx, "c", true)
	require.NoError(t, err)

	s := e.render.next(t)
	assert.Equal(t, compose.ModeSectioned, s.Result.Mode)
	assert.Equal(t, []string{"c"}, ids(s.Pinned))
	assert.Equal(t, []string{"a", "b"}, ids(s.Main))
}

func TestPopupOwnPinRecomposesOnce(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, e.popup.Start(ctx))
	e.render.next(t)

	require.NoError(t, e.popup.Pin(ctx, "b"))
	s := e.render.next(t)
	assert.Equal(t, []string{"b"}, ids(s.Pinned))
	e.render.quiet(t, 300*time.Millisecond)

	require.NoError(t, e.popup.SetOnlyPinnedVisible(ctx, true))
	s = e.render.next(t)
	assert.True(t, s.OnlyPinnedMode)
	assert.Equal(t, []string{"b"}, ids(s.Pinned))
	assert.Empty(t, s.Main)
	e.render.quiet(t, 300*time.Millisecond)
}

func TestPopupToggleFailureReportsStatus(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, e.popup.Start(ctx))
	e.render.next(t)

	e.host.FailOn("a", errors.New("blocked by policy"))
	err := e.popup.Toggle(ctx, "a")
	assert.ErrorIs(t, err, catalog.ErrOperationFailed)
	assert.True(t, e.status.has("Toggle failed: "))
	assert.Empty(t, e.render.patched)
}

// gatedHost blocks List while a gate is armed.
type gatedHost struct {
	*extension.MemoryHost
	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

func (h *gatedHost) arm() {
	h.mu.Lock()
	h.gate = make(chan struct{})
	h.entered = make(chan struct{}, 1)
	h.mu.Unlock()
}

func (h *gatedHost) release() {
	h.mu.Lock()
	close(h.gate)
	h.gate = nil
	h.mu.Unlock()
}

func (h *gatedHost) List(ctx context.Context) ([]extension.Info, error) {
	h.mu.Lock()
	gate, entered := h.gate, h.entered
	h.mu.Unlock()
	if gate != nil {
		// Read before blocking so the stale view is what gets returned.
		items, err := h.MemoryHost.List(ctx)
		entered <- struct{}{}
		<-gate
		return items, err
	}
	return h.MemoryHost.List(ctx)
}

func TestPopupPassOverlappingLocalEditIsRedone(t *testing.T) {
	mem := extension.NewMemoryHost(ext("self", "ExtSwitch", true), ext("a", "Alpha", true), ext("b", "Bravo", false))
	t.Cleanup(func() { mem.Close() })
	host := &gatedHost{MemoryHost: mem}
	e := newEnv(t, host)
	ctx := context.Background()
	require.NoError(t, e.popup.Start(ctx))
	e.render.next(t)

	host.arm()
	done := make(chan struct{})
	go func() {
		e.popup.Refresh()
		close(done)
	}()
	select {
	case <-host.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("pass never reached the host")
	}

	require.NoError(t, e.popup.Pin(ctx, "b"))
	s := e.render.next(t)
	assert.Equal(t, []string{"b"}, ids(s.Pinned))

	host.release()
	<-done

	stored, err := e.set.Pinned(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, stored)
	assert.Equal(t, []string{"b"}, ids(e.popup.Last().Pinned))

	s = e.render.next(t)
	assert.Equal(t, []string{"b"}, ids(s.Pinned))
	assert.Equal(t, compose.ModeSectioned, s.Result.Mode)
}

func TestPopupPassOverlappingToggleKeepsPatch(t *testing.T) {
	mem := extension.NewMemoryHost(ext("self", "ExtSwitch", true), ext("a", "Alpha", true))
	t.Cleanup(func() { mem.Close() })
	host := &gatedHost{MemoryHost: mem}
	e := newEnv(t, host)
	ctx := context.Background()
	require.NoError(t, e.popup.Start(ctx))
	e.render.next(t)

	host.arm()
	done := make(chan struct{})
	go func() {
		e.popup.Refresh()
		close(done)
	}()
	<-host.entered

	require.NoError(t, e.popup.Toggle(ctx, "a"))
	host.release()
	<-done

	s := e.render.next(t)
	require.Len(t, s.Main, 1)
	assert.False(t, s.Main[0].Enabled)
}

type brokenHost struct{ extension.Host }

func (brokenHost) List(context.Context) ([]extension.Info, error) {
	return nil, errors.New("host unreachable")
}

func (brokenHost) Get(_ context.Context, id string) (extension.Info, error) {
	return extension.Info{}, extension.ErrNotInstalled
}

func (brokenHost) Subscribe(func(extension.Event)) func() { return func() {} }

func TestPopupListFailureKeepsView(t *testing.T) {
	e := newEnv(t, brokenHost{})
	require.NoError(t, e.popup.Start(context.Background()))

	assert.True(t, e.status.has("Failed to list extensions: "))
	e.render.quiet(t, 100*time.Millisecond)
}

func TestPopupApplyProfileReportsFailures(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, e.popup.Start(ctx))
	e.render.next(t)

	require.NoError(t, e.set.SetProfiles(ctx, settings.Profiles{"Old": {"gone": true, "a": false, "b": true}}))
	report, err := e.popup.ApplyProfile(ctx, "Old")
	require.NoError(t, err)
	assert.Len(t, report.Failures, 1)
	assert.True(t, e.status.has("Profile Old: "))

	s := e.render.next(t)
	assert.False(t, s.Main[0].Enabled)
	assert.True(t, s.Main[1].Enabled)
}

func TestOptions(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	type change struct {
		key   string
		value any
	}
	changes := make(chan change, 16)
	opts := NewOptions(OptionsConfig{
		Catalog:          e.cat,
		Settings:         e.set,
		Status:           e.status,
		StoreTTL:         100 * time.Millisecond,
		OnExternalChange: func(key string, value any) { changes <- change{key, value} },
	})
	defer opts.Close()

	require.NoError(t, opts.SetPinned(ctx, "c", true))
	require.NoError(t, opts.SetHidden(ctx, "a", true))
	require.NoError(t, opts.SetOnlyPinnedVisible(ctx, true))

	rows, err := opts.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0].ID)
	assert.True(t, rows[0].Hidden)
	assert.True(t, rows[2].Pinned)

	ps, err := e.set.Popup(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.PopupSettings{Height: 400, Sort: settings.SortNameAsc, OnlyPinnedVisible: true}, ps)

	select {
	case c := <-changes:
		t.Fatalf("own write echoed as external change: %s", c.key)
	case <-time.After(50 * time.Millisecond):
	}
	time.Sleep(150 * time.Millisecond)

	// A write from another surface arrives typed and defaulted.
	require.NoError(t, e.store.Set(ctx, map[string]any{settings.KeyPopup: map[string]any{"sort": "name_desc"}}))
	select {
	case c := <-changes:
		assert.Equal(t, settings.KeyPopup, c.key)
		assert.Equal(t, settings.PopupSettings{Height: 400, Sort: settings.SortNameDesc}, c.value)
	case <-time.After(3 * time.Second):
		t.Fatal("external change not delivered")
	}
}
