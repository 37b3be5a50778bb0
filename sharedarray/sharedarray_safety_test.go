//go:build !dualview_release

package sharedarray_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/fake"
	"github.com/momentics/dualview/sharedarray"
	"github.com/momentics/dualview/vmath"
)

func TestViewsRejectedWhileOutstanding(t *testing.T) {
	arr, err := sharedarray.New[vmath.Vector4, vmath.Float4](make([]vmath.Vector4, 16))
	require.NoError(t, err)
	t.Cleanup(arr.Dispose)

	tok := fake.NewManualToken()
	_ = arr.JobView()
	arr.Gate().Begin(tok)

	_, err = arr.TryViewA()
	assert.ErrorIs(t, err, api.ErrUnsafeAccess)
	_, err = arr.TryViewB()
	assert.ErrorIs(t, err, api.ErrUnsafeAccess)
	assert.Panics(t, func() { arr.ViewA() })
	assert.Panics(t, func() { arr.ViewB() })
	assert.ErrorIs(t, arr.Resize(32), api.ErrUnsafeAccess)
	assert.NotPanics(t, func() { arr.JobView() })

	tok.Complete(nil)
	_, err = arr.TryViewA()
	assert.NoError(t, err)
}

func TestUseAfterDispose(t *testing.T) {
	arr, err := sharedarray.New[vmath.Vector4, vmath.Float4](make([]vmath.Vector4, 2))
	require.NoError(t, err)
	arr.Dispose()

	_, err = arr.TryViewA()
	assert.ErrorIs(t, err, api.ErrDisposed)
	assert.ErrorIs(t, arr.Resize(4), api.ErrDisposed)
	assert.Panics(t, func() { arr.ViewA() })
	assert.Panics(t, func() { arr.JobView() })
}
