package render_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/dualview/api"
	"github.com/momentics/dualview/render"
	"github.com/momentics/dualview/vmath"
)

func TestPropertyIDStable(t *testing.T) {
	c := render.PropertyID(render.ColorProperty)
	assert.NotZero(t, c)
	assert.Equal(t, c, render.PropertyID("_Color"))

	custom := render.PropertyID("_Wobble")
	assert.NotZero(t, custom)
	assert.NotEqual(t, c, custom)
	assert.Equal(t, custom, render.PropertyID("_Wobble"))
	assert.NotEqual(t, custom, render.PropertyID("_Jiggle"))
}

func TestNullRendererPrepare(t *testing.T) {
	r := render.NewNullRenderer(zerolog.Nop())
	mesh := &api.Mesh{Name: "cube"}

	plain := &api.Material{Name: "unlit"}
	assert.ErrorIs(t, r.Prepare(mesh, plain), api.ErrExternalCollaborator)

	mat := &api.Material{Name: "lit", SupportsInstancing: true}
	require.NoError(t, r.Prepare(mesh, mat))
	assert.True(t, mat.Instancing)
}

func TestNullRendererDraw(t *testing.T) {
	r := render.NewNullRenderer(zerolog.Nop())
	mesh := &api.Mesh{Name: "cube"}
	mat := &api.Material{SupportsInstancing: true}

	m := make([]vmath.Matrix4x4, 4)
	assert.ErrorIs(t, r.DrawMeshInstanced(mesh, mat, m, 4, api.DrawParams{}), api.ErrExternalCollaborator,
		"unprepared material")

	require.NoError(t, r.Prepare(mesh, mat))
	require.NoError(t, r.DrawMeshInstanced(mesh, mat, m, 4, api.DrawParams{}))
	assert.ErrorIs(t, r.DrawMeshInstanced(mesh, mat, m, 5, api.DrawParams{}), api.ErrExternalCollaborator)
	big := make([]vmath.Matrix4x4, render.MaxInstancesPerDraw+1)
	assert.ErrorIs(t, r.DrawMeshInstanced(mesh, mat, big, len(big), api.DrawParams{}), api.ErrExternalCollaborator)

	s := r.Stats()
	assert.Equal(t, int64(1), s.Draws)
	assert.Equal(t, int64(4), s.Instances)
}
