//go:build windows

// File: pool/region_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

type mapping struct {
	data   []byte
	addr   uintptr
	locked bool
}

func mapRegion(size int, lock bool) (mapping, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return mapping{}, err
	}
	m := mapping{
		data: unsafe.Slice((*byte)(unsafe.Pointer(addr)), size),
		addr: addr,
	}
	if lock {
		m.locked = windows.VirtualLock(addr, uintptr(size)) == nil
	}
	return m, nil
}

func (m mapping) free() error {
	if m.locked {
		_ = windows.VirtualUnlock(m.addr, uintptr(len(m.data)))
	}
	return windows.VirtualFree(m.addr, 0, windows.MEM_RELEASE)
}
