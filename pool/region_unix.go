//go:build unix

// File: pool/region_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Anonymous private mappings live outside the Go heap, so the collector
// never moves or scans them.

package pool

import "golang.org/x/sys/unix"

type mapping struct {
	data   []byte
	locked bool
}

func mapRegion(size int, lock bool) (mapping, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return mapping{}, err
	}
	m := mapping{data: data}
	if lock {
		m.locked = unix.Mlock(data) == nil
	}
	return m, nil
}

func (m mapping) free() error {
	if m.locked {
		_ = unix.Munlock(m.data)
	}
	return unix.Munmap(m.data)
}
