// Package settings is the typed view of the persisted keys in the shared
// store. Every read validates each key against an embedded JSON Schema and
// substitutes the default for anything missing or malformed; nothing is
// cached between reads. Every write marks its key in the caller's
// suppressor first, so the writer can ignore its own change notification.
package settings
