// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration, metrics and debug introspection for dualview.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads and merged updates with validation
//   - Reload listeners, fed by TOML files and an fsnotify watcher
//   - A metrics registry and named debug probes
package control
