// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory layer for dualview.
// Implements pinned, zero-copy region allocation with size-class recycling.
// Regions are mapped outside the Go heap where the platform allows it
// (mmap on unix, VirtualAlloc on Windows) and pinned heap blocks elsewhere,
// so their base address is stable for their whole lifetime.
// See region.go for the pool and region_*.go for the platform backends.
package pool
