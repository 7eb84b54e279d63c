package preference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRender_Defaults(t *testing.T) {
	p := ResolveRender(Snapshot{})

	assert.Equal(t, RenderParams{
		Shape:  ShapeCube,
		Width:  10,
		Height: 10,
		Depth:  10,
		Color:  DefaultRenderColor,
	}, p)
}

func TestResolveRender_DoesNotMutateSnapshot(t *testing.T) {
	s := Snapshot{KeyWidth: 4.0}

	_ = ResolveRender(s)

	assert.Equal(t, Snapshot{KeyWidth: 4.0}, s)
}

func TestResolveRender_Fields(t *testing.T) {
	p := ResolveRender(Snapshot{
		KeyShape:  "Sphere",
		KeyWidth:  12.0,
		KeyHeight: int32(3),
		KeyColor:  float64(ColorRed),
		"style":   "modern",
	})

	assert.Equal(t, ShapeSphere, p.Shape)
	assert.Equal(t, 12.0, p.Width)
	assert.Equal(t, 3.0, p.Height)
	assert.Equal(t, 10.0, p.Depth)
	assert.Equal(t, ColorRed, p.Color)
}

func TestResolveRender_UnknownShapeFallsBack(t *testing.T) {
	assert.Equal(t, ShapeCube, ResolveRender(Snapshot{KeyShape: "pyramid"}).Shape)
	assert.Equal(t, ShapeCube, ResolveRender(Snapshot{KeyShape: 42}).Shape)
	assert.Equal(t, ShapeCylinder, ResolveRender(Snapshot{KeyShape: "cylinder"}).Shape)
}

func TestResolveRender_InvalidColor(t *testing.T) {
	assert.Equal(t, DefaultRenderColor, ResolveRender(Snapshot{KeyColor: -1.0}).Color)
	assert.Equal(t, DefaultRenderColor, ResolveRender(Snapshot{KeyColor: "blue"}).Color)
}
