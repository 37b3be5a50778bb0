// File: batch/batch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package batch

import (
	"fmt"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/sharedarray"
)

// DefaultChunkCapacity is the per-draw instance limit of common instanced renderers.
const DefaultChunkCapacity = 1023

// SeedFunc produces the initial contents of chunk index with count elements.
// The returned slice is adopted by the chunk and must have length count.
type SeedFunc[A any] func(chunk, count int) []A

// Batch is an ordered set of chunk arrays covering one logical attribute.
// Lengths are fixed once built.
type Batch[A, B any] struct {
	chunks   []*sharedarray.Array[A, B]
	count    int
	capacity int
}

// ClampCount truncates n down to a multiple of c. It never rounds up:
// ClampCount(1500, 1023) is 1023.
func ClampCount(n, c int) int {
	if c <= 0 || n <= 0 {
		return 0
	}
	return n - n%c
}

// chunkLengths returns the length of each chunk for n elements at capacity c.
func chunkLengths(n, c int) []int {
	whole, rem := n/c, n%c
	lens := make([]int, 0, whole+1)
	for range whole {
		lens = append(lens, c)
	}
	if rem != 0 {
		lens = append(lens, rem)
	}
	return lens
}

func validate(n, c int) error {
	if n < 0 || c <= 0 {
		return fmt.Errorf("batch: count %d, chunk capacity %d: %w", n, c, api.ErrInvalidArgument)
	}
	return nil
}

// Build partitions logicalCount elements into chunks of chunkCapacity, the
// last holding the remainder, seeding each chunk from seed.
func Build[A, B any](logicalCount, chunkCapacity int, seed SeedFunc[A]) (*Batch[A, B], error) {
	if err := validate(logicalCount, chunkCapacity); err != nil {
		return nil, err
	}
	if seed == nil {
		seed = func(_, n int) []A { return make([]A, n) }
	}
	b := &Batch[A, B]{count: logicalCount, capacity: chunkCapacity}
	for i, n := range chunkLengths(logicalCount, chunkCapacity) {
		data := seed(i, n)
		if len(data) != n {
			b.Dispose()
			return nil, fmt.Errorf("batch: seed for chunk %d returned %d elements, want %d: %w",
				i, len(data), n, api.ErrInvalidArgument)
		}
		arr, err := sharedarray.New[A, B](data)
		if err != nil {
			b.Dispose()
			return nil, err
		}
		b.chunks = append(b.chunks, arr)
	}
	return b, nil
}

// BuildWithCount partitions like Build over zeroed allocator-backed chunks.
func BuildWithCount[A, B any](alloc api.RegionAllocator, logicalCount, chunkCapacity int) (*Batch[A, B], error) {
	if err := validate(logicalCount, chunkCapacity); err != nil {
		return nil, err
	}
	b := &Batch[A, B]{count: logicalCount, capacity: chunkCapacity}
	for _, n := range chunkLengths(logicalCount, chunkCapacity) {
		arr, err := sharedarray.NewWithCount[A, B](alloc, n)
		if err != nil {
			b.Dispose()
			return nil, err
		}
		b.chunks = append(b.chunks, arr)
	}
	return b, nil
}

// Len returns the number of chunks.
func (b *Batch[A, B]) Len() int { return len(b.chunks) }

// Count returns the logical element count.
func (b *Batch[A, B]) Count() int { return b.count }

// ChunkCapacity returns the capacity every chunk but the last is filled to.
func (b *Batch[A, B]) ChunkCapacity() int { return b.capacity }

// Remainder returns the length of a trailing partial chunk, 0 if none.
func (b *Batch[A, B]) Remainder() int { return b.count % b.capacity }

// Chunk returns chunk i.
func (b *Batch[A, B]) Chunk(i int) *sharedarray.Array[A, B] { return b.chunks[i] }

// Offset returns the first logical index covered by chunk i.
func (b *Batch[A, B]) Offset(i int) int { return i * b.capacity }

// ForEachChunk calls fn for every chunk in order.
func (b *Batch[A, B]) ForEachChunk(fn func(i int, a *sharedarray.Array[A, B])) {
	for i, c := range b.chunks {
		fn(i, c)
	}
}

// Begin records t on every chunk's gate.
func (b *Batch[A, B]) Begin(t api.Token) {
	for _, c := range b.chunks {
		c.Gate().Begin(t)
	}
}

// EnsureSafe waits until every chunk's gate is safe. All gates are drained
// even if one reports a task failure; the first failure is returned.
func (b *Batch[A, B]) EnsureSafe() error {
	var first error
	for _, c := range b.chunks {
		if err := c.Gate().EnsureSafe(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Dispose disposes every chunk. Safe to call more than once.
func (b *Batch[A, B]) Dispose() {
	for _, c := range b.chunks {
		c.Dispose()
	}
}
