// Package config loads, validates and watches the gateway's YAML
// configuration.
//
// Loading happens in phases: read the file, expand environment
// references in secret fields, unmarshal, apply defaults, apply
// AUTOROUTER_* environment overrides, then validate. The Watcher
// re-runs that pipeline when the file changes so credentials and model
// bindings can be swapped without a restart.
package config
