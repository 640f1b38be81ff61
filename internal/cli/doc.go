// Package cli implements the extswitch command tree.
package cli
