// Package manifest parses and validates installed-extension manifests.
//
// Every extension directory carries a manifest.yaml describing its display
// name, semantic version, kind, icons and whether the user may disable it.
// Manifests are validated against the JSON Schema embedded from
// schema/manifest.schema.json before the host trusts them.
package manifest
