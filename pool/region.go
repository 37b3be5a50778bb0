// File: pool/region.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RegionPool: size-classed recycling of pinned regions.

package pool

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/momentics/dualview/api"
)

const (
	// minClass is the smallest region handed out; one page on common platforms.
	minClass = 4096
	// defaultClassCapacity bounds how many idle regions each size class keeps.
	defaultClassCapacity = 64
)

// Ensure compile-time interface compliance.
var _ api.RegionAllocator = (*RegionPool)(nil)

// RegionPool recycles pinned regions per power-of-two size class.
type RegionPool struct {
	mu            sync.Mutex
	classes       map[int]chan *region
	classCapacity int
	lockMemory    bool
	log           zerolog.Logger

	totalAlloc   atomic.Int64
	totalFree    atomic.Int64
	reused       atomic.Int64
	inUse        atomic.Int64
	bytesInUse   atomic.Int64
	lockFailures atomic.Int64
}

// Option customizes a RegionPool.
type Option func(*RegionPool)

// WithMemoryLock asks the backend to lock regions into RAM (mlock/VirtualLock).
// Locking is best effort; failures are counted and logged.
func WithMemoryLock(lock bool) Option {
	return func(p *RegionPool) { p.lockMemory = lock }
}

// WithClassCapacity sets the number of idle regions retained per size class.
func WithClassCapacity(n int) Option {
	return func(p *RegionPool) {
		if n >= 0 {
			p.classCapacity = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *RegionPool) { p.log = l }
}

// NewRegionPool creates an empty pool.
func NewRegionPool(opts ...Option) *RegionPool {
	p := &RegionPool{
		classes:       make(map[int]chan *region),
		classCapacity: defaultClassCapacity,
		log:           zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// classFor rounds size up to the next power of two, at least minClass.
func classFor(size int) int {
	if size <= minClass {
		return minClass
	}
	return 1 << bits.Len(uint(size-1))
}

func (p *RegionPool) channel(class int) chan *region {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.classes[class]
	if !ok {
		ch = make(chan *region, p.classCapacity)
		p.classes[class] = ch
	}
	return ch
}

// Get returns a zeroed region of at least size bytes.
func (p *RegionPool) Get(size int) (api.Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool: region size %d: %w", size, api.ErrInvalidArgument)
	}
	class := classFor(size)
	select {
	case r := <-p.channel(class):
		clear(r.mem.data)
		r.size = size
		r.released.Store(false)
		p.reused.Add(1)
		p.inUse.Add(1)
		p.bytesInUse.Add(int64(class))
		return r, nil
	default:
	}

	m, err := mapRegion(class, p.lockMemory)
	if err != nil {
		return nil, fmt.Errorf("pool: map %d bytes: %w", class, err)
	}
	if p.lockMemory && !m.locked {
		p.lockFailures.Add(1)
		p.log.Debug().Int("bytes", class).Msg("region memory lock unavailable")
	}
	p.totalAlloc.Add(1)
	p.inUse.Add(1)
	p.bytesInUse.Add(int64(class))
	return &region{mem: m, size: size, class: class, pool: p}, nil
}

func (p *RegionPool) put(r *region) {
	p.inUse.Add(-1)
	p.bytesInUse.Add(-int64(r.class))
	select {
	case p.channel(r.class) <- r:
		return
	default:
	}
	p.totalFree.Add(1)
	if err := r.mem.free(); err != nil {
		p.log.Warn().Err(err).Int("bytes", r.class).Msg("region unmap failed")
	}
}

// Drain frees every idle region.
func (p *RegionPool) Drain() {
	p.mu.Lock()
	chans := make([]chan *region, 0, len(p.classes))
	for _, ch := range p.classes {
		chans = append(chans, ch)
	}
	p.mu.Unlock()
	for _, ch := range chans {
		for {
			select {
			case r := <-ch:
				p.totalFree.Add(1)
				if err := r.mem.free(); err != nil {
					p.log.Warn().Err(err).Msg("region unmap failed")
				}
				continue
			default:
			}
			break
		}
	}
}

// Stats exposes allocation accounting.
func (p *RegionPool) Stats() api.RegionStats {
	return api.RegionStats{
		TotalAlloc: p.totalAlloc.Load(),
		TotalFree:  p.totalFree.Load(),
		Reused:     p.reused.Load(),
		InUse:      p.inUse.Load(),
		BytesInUse: p.bytesInUse.Load(),
	}
}

// LockFailures counts regions that could not be locked into RAM.
func (p *RegionPool) LockFailures() int64 { return p.lockFailures.Load() }

// region implements api.Region.
type region struct {
	mem      mapping
	size     int
	class    int
	pool     *RegionPool
	released atomic.Bool
}

func (r *region) Bytes() []byte { return r.mem.data[:r.size] }

func (r *region) Pointer() unsafe.Pointer { return unsafe.Pointer(unsafe.SliceData(r.mem.data)) }

// Release is idempotent.
func (r *region) Release() {
	if r.released.CompareAndSwap(false, true) {
		r.pool.put(r)
	}
}
