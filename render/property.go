// File: render/property.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package render

import "sync"

// ColorProperty is the per-instance color array name.
const ColorProperty = "_Color"

var builtinProperties = sync.OnceValue(func() map[string]int {
	names := []string{ColorProperty, "_BaseColor", "_MainTex", "_EmissionColor", "_Glossiness"}
	ids := make(map[string]int, len(names))
	for i, n := range names {
		ids[n] = i + 1
	}
	return ids
})

var (
	dynMu   sync.Mutex
	dynIDs  = map[string]int{}
	dynNext = 0
)

// PropertyID maps a shader property name to a stable non-zero id. Built-in
// names resolve from a table built on first use; other names are numbered
// in first-seen order for the life of the process.
func PropertyID(name string) int {
	table := builtinProperties()
	if id, ok := table[name]; ok {
		return id
	}
	dynMu.Lock()
	defer dynMu.Unlock()
	if id, ok := dynIDs[name]; ok {
		return id
	}
	if dynNext == 0 {
		dynNext = len(table) + 1
	}
	id := dynNext
	dynNext++
	dynIDs[name] = id
	return id
}
