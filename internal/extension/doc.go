// Package extension models the host platform that owns installed
// extensions: their manifests, their enabled state, and the enable/disable
// events it fires when any extension changes state.
//
// DirHost reads extensions from <root>/<id>/manifest.yaml and keeps the
// enabled state in <root>/state.yaml. MemoryHost is an in-process host for
// tests and demos.
package extension
