// Package scaffold generates new extension directories from embedded
// templates. It powers the "extswitch create" command, writing a manifest
// the extensions host accepts.
package scaffold
