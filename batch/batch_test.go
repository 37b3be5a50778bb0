package batch_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/batch"
	"github.com/momentics/dualview/pool"
	"github.com/momentics/dualview/sharedarray"
	"github.com/momentics/dualview/vmath"
)

type sharedArrayU32 = sharedarray.Array[uint32, float32]

func lengths[A, B any](b *batch.Batch[A, B]) []int {
	var out []int
	for i := range b.Len() {
		out = append(out, b.Chunk(i).Len())
	}
	return out
}

// indexSeed fills each element with its logical index so coverage can be checked.
func indexSeed(capacity int) batch.SeedFunc[uint32] {
	return func(chunk, n int) []uint32 {
		out := make([]uint32, n)
		for i := range out {
			out[i] = uint32(chunk*capacity + i)
		}
		return out
	}
}

func TestBuildWithRemainder(t *testing.T) {
	b, err := batch.Build[vmath.Vector4, vmath.Float4](2500, 1023, nil)
	require.NoError(t, err)
	t.Cleanup(b.Dispose)

	if diff := cmp.Diff([]int{1023, 1023, 454}, lengths(b)); diff != "" {
		t.Fatalf("chunk lengths mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 454, b.Remainder())
	assert.Equal(t, 2046, b.Offset(2))
}

func TestBuildExactCapacity(t *testing.T) {
	b, err := batch.Build[vmath.Matrix4x4, vmath.Float4x4](1023, 1023, nil)
	require.NoError(t, err)
	t.Cleanup(b.Dispose)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 0, b.Remainder())
}

func TestPartitionCoversRange(t *testing.T) {
	for _, c := range []int{1, 7, 64, 1023} {
		for _, n := range []int{0, 1, c - 1, c, c + 1, 3*c + 2, 5000} {
			for _, clamp := range []bool{false, true} {
				count := n
				if clamp {
					count = batch.ClampCount(n, c)
				}
				b, err := batch.Build[uint32, float32](count, c, indexSeed(c))
				require.NoError(t, err)

				sum := 0
				next := uint32(0)
				for i := range b.Len() {
					chunk := b.Chunk(i)
					if i < b.Len()-1 || count%c == 0 {
						require.Equal(t, c, chunk.Len(), "n=%d c=%d chunk=%d", count, c, i)
					}
					require.Equal(t, i*c, b.Offset(i))
					for _, v := range chunk.ViewA() {
						require.Equal(t, next, v, "chunks must cover [0, n) in order")
						next++
					}
					sum += chunk.Len()
				}
				require.Equal(t, count, sum)
				if clamp {
					require.Zero(t, b.Remainder())
				}
				b.Dispose()
			}
		}
	}
}

func TestClampCount(t *testing.T) {
	assert.Equal(t, 1023, batch.ClampCount(1500, 1023))
	assert.Equal(t, 2046, batch.ClampCount(2500, 1023))
	assert.Equal(t, 0, batch.ClampCount(1000, 1023))
	assert.Equal(t, 0, batch.ClampCount(5, 0))
}

func TestBuildRejectsBadInput(t *testing.T) {
	_, err := batch.Build[uint32, float32](10, 0, nil)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	short := func(_, n int) []uint32 { return make([]uint32, n-1) }
	_, err = batch.Build[uint32, float32](10, 4, short)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = batch.Build[uint64, float32](10, 4, nil)
	assert.ErrorIs(t, err, api.ErrConfiguration)
}

func TestBuildWithCount(t *testing.T) {
	p := pool.NewRegionPool()
	b, err := batch.BuildWithCount[vmath.Vector4, vmath.Float4](p, 2100, 1023)
	require.NoError(t, err)
	assert.Equal(t, []int{1023, 1023, 54}, lengths(b))
	assert.Equal(t, int64(3), p.Stats().InUse)

	b.Dispose()
	b.Dispose()
	assert.Equal(t, int64(0), p.Stats().InUse)
}

func TestBeginCoversEveryChunk(t *testing.T) {
	b, err := batch.Build[uint32, float32](10, 3, nil)
	require.NoError(t, err)
	t.Cleanup(b.Dispose)

	b.Begin(api.Completed)
	b.ForEachChunk(func(i int, a *sharedArrayU32) {
		assert.Equal(t, api.Completed, a.Gate().Token(), "chunk %d", i)
	})
	assert.NoError(t, b.EnsureSafe())
}
