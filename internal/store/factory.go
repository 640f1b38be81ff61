package store

import (
	"fmt"
	"time"
)

// Driver names a Store implementation.
type Driver string

const (
	DriverFile   Driver = "file"
	DriverSQLite Driver = "sqlite"
	DriverMemory Driver = "memory"
)

// Options selects and configures a driver.
type Options struct {
	Driver Driver
	// Path is the YAML document (file) or database file (sqlite).
	Path string
	Area Area
	// PollInterval applies to sqlite only.
	PollInterval time.Duration
}

// Open selects a Store implementation.
//
//	file   (default) YAML document at Path, fsnotify change detection
//	sqlite database at Path, PRAGMA data_version polling
//	memory process-local, for tests and throwaway sessions
func Open(opts Options) (Store, error) {
	area := opts.Area
	if area == "" {
		area = AreaSync
	}
	driver := opts.Driver
	if driver == "" {
		driver = DriverFile
	}
	switch driver {
	case DriverFile:
		return NewFile(opts.Path, area)
	case DriverSQLite:
		return NewSQLite(opts.Path, area, opts.PollInterval)
	case DriverMemory:
		return NewMemory(area), nil
	default:
		return nil, fmt.Errorf("unknown store driver %s", driver)
	}
}
