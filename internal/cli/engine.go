package cli

import (
	"fmt"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/config"
	"github.com/agentx-labs/extswitch/internal/extension"
	"github.com/agentx-labs/extswitch/internal/metrics"
	"github.com/agentx-labs/extswitch/internal/profile"
	"github.com/agentx-labs/extswitch/internal/settings"
	"github.com/agentx-labs/extswitch/internal/store"
	"github.com/agentx-labs/extswitch/internal/surface"
	"github.com/agentx-labs/extswitch/internal/userdata"
	"github.com/pterm/pterm"
)

// engine bundles the collaborators every command opens.
type engine struct {
	store    store.Store
	host     *extension.DirHost
	catalog  *catalog.Catalog
	settings *settings.Settings
}

func openEngine() (*engine, error) {
	driver := store.Driver(config.Get(config.KeyStoreDriver))
	path := userdata.GetSettingsPath()
	if driver == store.DriverSQLite {
		path = userdata.GetSettingsDBPath()
	}
	pterm.Debug.Printfln("store driver %q at %s", driver, path)

	st, err := store.Open(store.Options{
		Driver:       driver,
		Path:         path,
		PollInterval: config.Duration(config.KeyStorePollInterval, config.DefaultStorePollInterval),
	})
	if err != nil {
		return nil, fmt.Errorf("opening settings store: %w", err)
	}

	root := userdata.GetExtensionsRoot()
	pterm.Debug.Printfln("extensions root %s", root)
	host, err := extension.NewDirHost(root)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("opening extensions: %w", err)
	}

	return &engine{
		store:    st,
		host:     host,
		catalog:  catalog.New(host, config.Get(config.KeySelfID)),
		settings: settings.New(st, nil),
	}, nil
}

func (e *engine) Close() {
	e.host.Close()
	e.store.Close()
}

func (e *engine) profiles(m *metrics.Metrics) *profile.Manager {
	opts := []profile.Option{profile.WithParallelism(config.Int(config.KeyProfileParallel, config.DefaultProfileParallel))}
	if m != nil {
		opts = append(opts, profile.WithObserver(m))
	}
	return profile.New(e.catalog, e.settings, opts...)
}

func (e *engine) popup(r surface.Renderer, status surface.StatusSink, m *metrics.Metrics) *surface.Popup {
	return surface.NewPopup(surface.PopupConfig{
		Catalog:     e.catalog,
		Settings:    e.settings,
		Renderer:    r,
		Status:      status,
		StoreTTL:    config.Duration(config.KeyStoreTTL, config.DefaultStoreTTL),
		MgmtTTL:     config.Duration(config.KeyManagementTTL, config.DefaultManagementTTL),
		Delay:       config.Duration(config.KeyRefreshDelay, config.DefaultRefreshDelay),
		Parallelism: config.Int(config.KeyProfileParallel, config.DefaultProfileParallel),
		Metrics:     m,
	})
}

// ptermStatus sends popup status lines to the warning printer.
var ptermStatus = surface.StatusFunc(func(msg string) { pterm.Warning.Println(msg) })
