// Package platform provides cross-platform filesystem helpers: atomic file
// replacement for the settings and host state files, and permission
// management that degrades to a no-op on Windows.
package platform
