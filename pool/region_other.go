//go:build !unix && !windows

// File: pool/region_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fallback for platforms without anonymous mappings: a heap block pinned
// for the region's lifetime. Backed by []uint64 for 8-byte alignment.

package pool

import (
	"runtime"
	"unsafe"
)

type mapping struct {
	data   []byte
	locked bool
	pinner *runtime.Pinner
}

func mapRegion(size int, _ bool) (mapping, error) {
	words := make([]uint64, (size+7)/8)
	p := new(runtime.Pinner)
	p.Pin(&words[0])
	return mapping{
		data:   unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size),
		pinner: p,
	}, nil
}

func (m mapping) free() error {
	m.pinner.Unpin()
	return nil
}
