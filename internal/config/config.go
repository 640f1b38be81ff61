package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentx-labs/extswitch/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeyStoreDriver       = "store.driver"
	KeyStorePollInterval = "store.poll_interval"
	KeyRefreshDelay      = "refresh.delay"
	KeyStoreTTL          = "suppress.store_ttl"
	KeyManagementTTL     = "suppress.management_ttl"
	KeyProfileParallel   = "profile.parallelism"
	KeySelfID            = "self_id"
	KeyMetricsAddr       = "metrics.addr"
)

// Defaults mirror the timings the popup has always used: a 200ms debounce,
// 600ms echo window for settings keys and 800ms for management events.
const (
	DefaultStoreDriver       = "file"
	DefaultStorePollInterval = 500 * time.Millisecond
	DefaultRefreshDelay      = 200 * time.Millisecond
	DefaultStoreTTL          = 600 * time.Millisecond
	DefaultManagementTTL     = 800 * time.Millisecond
	DefaultProfileParallel   = 4
)

// envKeyReplacer maps nested keys to env names: store.driver → EXTSWITCH_STORE_DRIVER.
var envKeyReplacer = strings.NewReplacer(".", "_")

// Dir returns the path to the config directory (~/.extswitch/), honoring
// the EXTSWITCH_HOME override.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.extswitch/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	viper.SetDefault(KeyStoreDriver, DefaultStoreDriver)
	viper.SetDefault(KeyStorePollInterval, DefaultStorePollInterval)
	viper.SetDefault(KeyRefreshDelay, DefaultRefreshDelay)
	viper.SetDefault(KeyStoreTTL, DefaultStoreTTL)
	viper.SetDefault(KeyManagementTTL, DefaultManagementTTL)
	viper.SetDefault(KeyProfileParallel, DefaultProfileParallel)
	viper.SetDefault(KeySelfID, branding.SelfID())

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Duration returns a duration setting, falling back to def when the stored
// value is missing, unparsable or not positive.
func Duration(key string, def time.Duration) time.Duration {
	if !viper.IsSet(key) {
		return def
	}
	d := viper.GetDuration(key)
	if d <= 0 {
		return def
	}
	return d
}

// Int returns an integer setting, falling back to def when not positive.
func Int(key string, def int) int {
	n := viper.GetInt(key)
	if n <= 0 {
		return def
	}
	return n
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
