// Package api
// Author: momentics
//
// Pinned memory regions backing shared arrays.
//
// A region never moves for its lifetime: it is either mapped outside the Go
// heap or pinned in it. All operations are zero-copy.

package api

import "unsafe"

// Region is one pinned, zeroed allocation.
type Region interface {
	// Bytes returns the whole region.
	Bytes() []byte

	// Pointer returns the stable base address.
	Pointer() unsafe.Pointer

	// Release returns the region to its allocator. After Release the region
	// must not be used.
	Release()
}

// RegionAllocator hands out pinned regions.
type RegionAllocator interface {
	// Get returns a zeroed region of at least size bytes.
	Get(size int) (Region, error)

	// Stats exposes allocation accounting.
	Stats() RegionStats
}

// RegionStats aggregates region allocation/reuse stats.
type RegionStats struct {
	TotalAlloc int64
	TotalFree  int64
	Reused     int64
	InUse      int64
	BytesInUse int64
}
