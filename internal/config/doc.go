// Package config manages user-level settings stored at ~/.extswitch/config.yaml.
// It exposes the tunable timings of the refresh engine (debounce delay and
// echo-suppression windows), the store driver selection and the metrics
// listener address, each overridable through EXTSWITCH_* environment variables.
package config
