package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-4

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, 45*math.Pi/180, c.Fov(), tol)
	assert.InDelta(t, 0.1, c.Near(), tol)
	assert.InDelta(t, 100, c.Far(), tol)
	assert.InDelta(t, 1, c.Aspect(), tol)
	assert.Nil(t, c.Controller())
}

func TestCameraReadsControllerPosition(t *testing.T) {
	ctrl := NewOrbitController()
	c := NewCamera(WithController(ctrl))

	x, y, z := c.Position()
	assert.InDelta(t, 4, x, tol)
	assert.InDelta(t, 2, y, tol)
	assert.InDelta(t, 4, z, tol)

	u := c.Uniform()
	assert.Equal(t, c.ViewProjectionMatrix(), u.ViewProj)
	assert.InDelta(t, 4, u.CameraPosition[0], tol)
	assert.Len(t, u.Marshal(), 96)
}

func TestCameraSetAspectUpdatesProjection(t *testing.T) {
	c := NewCamera()
	c.SetAspect(2)
	p := c.ProjectionMatrix()
	assert.InDelta(t, 2, c.Aspect(), tol)
	assert.InDelta(t, p[5]/2, p[0], tol)
}

func TestCameraProjectionDepthRange(t *testing.T) {
	c := NewCamera()
	p := c.ProjectionMatrix()

	// view-space z at the clip planes lands on WebGPU's [0, 1] depth range
	depth := func(z float32) float32 {
		return (p[10]*z + p[14]) / (p[11] * z)
	}
	assert.InDelta(t, 0, depth(-DefaultNear), tol)
	assert.InDelta(t, 1, depth(-DefaultFar), tol)
}

func TestCameraViewLooksAtOrigin(t *testing.T) {
	c := NewCamera(WithController(NewOrbitController()))
	v := c.ViewMatrix()
	// The origin sits on the -Z axis of view space at the controller's radius.
	assert.InDelta(t, 0, v[12], tol)
	assert.InDelta(t, 0, v[13], tol)
	assert.InDelta(t, -6, v[14], tol)
}

func TestOrbitControllerInitialSpherical(t *testing.T) {
	oc := NewOrbitController()
	assert.InDelta(t, 6, oc.Radius(), tol)
	assert.InDelta(t, math.Pi/4, oc.Azimuth(), tol)
	assert.InDelta(t, math.Acos(2.0/6.0), oc.Polar(), tol)
	assert.InDelta(t, DefaultDampingFactor, oc.DampingFactor(), tol)

	assert.False(t, oc.Update(), "no input means no motion")
	x, y, z := oc.Position()
	assert.InDelta(t, 4, x, tol)
	assert.InDelta(t, 2, y, tol)
	assert.InDelta(t, 4, z, tol)
}

func TestOrbitControllerDampingSettles(t *testing.T) {
	oc := NewOrbitController()
	oc.SetViewportSize(1280, 720)
	start := oc.Azimuth()

	oc.PointerDown(0, 0)
	oc.PointerMove(100, 0)
	oc.PointerUp(100, 0)

	total := float32(-100 * 2 * math.Pi / 720)

	require.True(t, oc.Update())
	assert.InDelta(t, start+total*DefaultDampingFactor, oc.Azimuth(), tol)

	// Motion continues after input has ended.
	assert.True(t, oc.Update())

	steps := 0
	for oc.Update() {
		steps++
		require.Less(t, steps, 10000, "damping never settled")
	}
	assert.InDelta(t, start+total, oc.Azimuth(), 1e-3)
	assert.InDelta(t, 6, oc.Radius(), tol)
}

func TestOrbitControllerMoveWithoutDragIsIgnored(t *testing.T) {
	oc := NewOrbitController()
	oc.PointerMove(50, 50)
	assert.False(t, oc.Update())
}

func TestOrbitControllerZoom(t *testing.T) {
	oc := NewOrbitController(WithRadiusBounds(1, 10))
	oc.Zoom(1)
	oc.Update()
	assert.InDelta(t, 6*0.95, oc.Radius(), tol)

	oc.Zoom(-1)
	oc.Update()
	assert.InDelta(t, 6, oc.Radius(), tol)

	for range 200 {
		oc.Zoom(-1)
	}
	oc.Update()
	assert.InDelta(t, 10, oc.Radius(), tol)
}

func TestOrbitControllerPolarClamped(t *testing.T) {
	oc := NewOrbitController(WithDamping(1))
	oc.SetViewportSize(100, 100)
	oc.PointerDown(0, 0)
	oc.PointerMove(0, 1000)
	oc.Update()
	assert.Greater(t, oc.Polar(), float32(0))
	assert.Less(t, oc.Polar(), float32(math.Pi))
}
