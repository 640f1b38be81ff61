// Package store is the shared key-value persistence layer for extswitch
// settings. Every driver delivers change notifications to all subscribers,
// including the surface that performed the write, and detects edits made by
// other processes (fsnotify for the YAML file driver, PRAGMA data_version
// polling for the SQLite driver).
//
// Values are JSON-compatible: map[string]any, []any, string, float64, bool
// and nil. Callers that need typed values decode through the settings
// package, which applies a schema and defaults to every read.
package store
