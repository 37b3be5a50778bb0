// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_windows.go, etc.) guarded by build tags.

package affinity

import (
	"fmt"
	"runtime"

	"github.com/momentics/dualview/api"
)

// maxCPU bounds the cpu index accepted on every platform.
const maxCPU = 1024

// SetAffinity pins the current OS thread to a given logical CPU. The caller
// must hold runtime.LockOSThread for the pin to stay with its goroutine.
// On unsupported platforms it returns api.ErrNotSupported.
func SetAffinity(cpuID int) error {
	if cpuID < 0 || cpuID >= maxCPU {
		return fmt.Errorf("affinity: cpu %d: %w", cpuID, api.ErrInvalidArgument)
	}
	return setAffinityPlatform(cpuID)
}

// CPUFor maps worker index i onto the logical CPUs round-robin.
func CPUFor(i int) int {
	n := runtime.NumCPU()
	if n <= 0 || i < 0 {
		return 0
	}
	return i % n
}
