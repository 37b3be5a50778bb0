// File: sharedarray/sharedarray.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sharedarray

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/gate"
	"github.com/momentics/dualview/internal/safety"
)

// Array is a single pinned allocation viewed as []A and []B.
// Not safe for concurrent use except through the views handed to tasks.
type Array[A, B any] struct {
	a []A
	b []B

	// exactly one of pinner (adopted slice) or region (allocator memory) backs the views
	pinner *runtime.Pinner
	region api.Region
	alloc  api.RegionAllocator

	gate       *gate.Gate
	generation uint64
	disposed   bool
}

// New adopts initial without copying: the slice's backing array is pinned
// and becomes the storage of both views. The caller must not use initial
// afterwards except through the returned Array.
func New[A, B any](initial []A) (*Array[A, B], error) {
	if err := checkLayout[A, B](); err != nil {
		return nil, err
	}
	s := &Array[A, B]{gate: gate.New()}
	if err := s.adopt(initial); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithCount allocates n zeroed elements from alloc.
func NewWithCount[A, B any](alloc api.RegionAllocator, n int) (*Array[A, B], error) {
	if err := checkLayout[A, B](); err != nil {
		return nil, err
	}
	if alloc == nil || n < 0 {
		return nil, fmt.Errorf("sharedarray: allocator %v, count %d: %w", alloc, n, api.ErrInvalidArgument)
	}
	s := &Array[A, B]{gate: gate.New(), alloc: alloc}
	if err := s.allocate(n); err != nil {
		return nil, err
	}
	return s, nil
}

func elemSize[A any]() int { return int(unsafe.Sizeof(*new(A))) }

func (s *Array[A, B]) adopt(data []A) error {
	s.a, s.b, s.pinner = nil, nil, nil
	if len(data) == 0 {
		return nil
	}
	base := unsafe.Pointer(unsafe.SliceData(data))
	if !aligned(base, unsafe.Alignof(*new(B))) {
		return api.NewError(api.ErrCodeConfiguration, "sharedarray: storage misaligned for view B").
			WithContext("address", uintptr(base))
	}
	p := new(runtime.Pinner)
	p.Pin(&data[0])
	s.pinner = p
	s.a = data
	s.b = unsafe.Slice((*B)(base), len(data))
	return nil
}

func (s *Array[A, B]) allocate(n int) error {
	s.a, s.b, s.region = nil, nil, nil
	if n == 0 {
		return nil
	}
	r, err := s.alloc.Get(n * elemSize[A]())
	if err != nil {
		return fmt.Errorf("sharedarray: allocate %d elements: %w", n, err)
	}
	base := r.Pointer()
	if !aligned(base, unsafe.Alignof(*new(A))) {
		r.Release()
		return api.NewError(api.ErrCodeConfiguration, "sharedarray: region misaligned for element type").
			WithContext("address", uintptr(base))
	}
	s.region = r
	s.a = unsafe.Slice((*A)(base), n)
	s.b = unsafe.Slice((*B)(base), n)
	return nil
}

func (s *Array[A, B]) releaseStorage() {
	if s.pinner != nil {
		s.pinner.Unpin()
		s.pinner = nil
	}
	if s.region != nil {
		s.region.Release()
		s.region = nil
	}
	s.a, s.b = nil, nil
}

// mustAccess panics on use-after-dispose or access while tasks hold the buffer.
func (s *Array[A, B]) mustAccess() {
	if s.disposed {
		panic(api.NewError(api.ErrCodeInvalidArgument, "sharedarray: use after dispose"))
	}
	if err := s.gate.TryDirectAccess(); err != nil {
		panic(err)
	}
}

func (s *Array[A, B]) tryAccess() error {
	if s.disposed {
		return fmt.Errorf("sharedarray: %w", api.ErrDisposed)
	}
	return s.gate.TryDirectAccess()
}

// ViewA returns the friendly view. In default builds it panics with
// api.ErrUnsafeAccess while scheduled tasks still hold the buffer.
func (s *Array[A, B]) ViewA() []A {
	if safety.Enabled {
		s.mustAccess()
	}
	return s.a
}

// ViewB returns the task-facing view for direct sequential use, under the
// same checks as ViewA.
func (s *Array[A, B]) ViewB() []B {
	if safety.Enabled {
		s.mustAccess()
	}
	return s.b
}

// TryViewA is ViewA returning the failure instead of panicking.
func (s *Array[A, B]) TryViewA() ([]A, error) {
	if safety.Enabled {
		if err := s.tryAccess(); err != nil {
			return nil, err
		}
	}
	return s.a, nil
}

// TryViewB is ViewB returning the failure instead of panicking.
func (s *Array[A, B]) TryViewB() ([]B, error) {
	if safety.Enabled {
		if err := s.tryAccess(); err != nil {
			return nil, err
		}
	}
	return s.b, nil
}

// JobView returns the B view for handing to scheduled tasks. It skips the
// gate check: the caller is about to give the memory to the scheduler and
// must follow up with Gate().Begin on the resulting token.
func (s *Array[A, B]) JobView() []B {
	if safety.Enabled && s.disposed {
		panic(api.NewError(api.ErrCodeInvalidArgument, "sharedarray: use after dispose"))
	}
	return s.b
}

// Len returns the element count, identical under both views.
func (s *Array[A, B]) Len() int { return len(s.a) }

// Gate returns the array's access gate.
func (s *Array[A, B]) Gate() *gate.Gate { return s.gate }

// Generation increments on every reallocation; views obtained under an
// older generation are invalid.
func (s *Array[A, B]) Generation() uint64 { return s.generation }

// Disposed reports whether Dispose has run.
func (s *Array[A, B]) Disposed() bool { return s.disposed }

// Resize reallocates to n elements keeping the common prefix. Every view
// obtained earlier is invalidated. No-op when n equals Len.
func (s *Array[A, B]) Resize(n int) error {
	if n < 0 {
		return fmt.Errorf("sharedarray: resize to %d: %w", n, api.ErrInvalidArgument)
	}
	if err := s.tryAccess(); err != nil {
		return err
	}
	if n == len(s.a) {
		return nil
	}

	if s.alloc != nil {
		old, oldRegion := s.a, s.region
		if err := s.allocate(n); err != nil {
			s.a, s.region = old, oldRegion
			s.b = unsafe.Slice((*B)(unsafe.Pointer(unsafe.SliceData(old))), len(old))
			return err
		}
		copy(s.a, old)
		if oldRegion != nil {
			oldRegion.Release()
		}
	} else {
		next := make([]A, n)
		copy(next, s.a)
		if s.pinner != nil {
			s.pinner.Unpin()
		}
		if err := s.adopt(next); err != nil {
			return err
		}
	}
	s.generation++
	return nil
}

// Dispose releases the storage. A second call has no effect.
func (s *Array[A, B]) Dispose() {
	if s.disposed {
		return
	}
	s.releaseStorage()
	s.disposed = true
}
