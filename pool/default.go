// File: pool/default.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync"

var (
	defaultOnce sync.Once
	defaultPool *RegionPool
)

// Default returns a process-wide RegionPool so components share recycled
// regions instead of fragmenting allocations.
func Default() *RegionPool {
	defaultOnce.Do(func() {
		defaultPool = NewRegionPool()
	})
	return defaultPool
}
