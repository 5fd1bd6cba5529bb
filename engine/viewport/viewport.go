// Package viewport tracks the drawable size and device pixel ratio and pushes changes into
// the camera projection, the orbit controller and the render surface.
package viewport

import (
	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/engine/camera"
)

// DefaultMaxPixelRatio caps the device pixel ratio used for rendering.
const DefaultMaxPixelRatio float32 = 2

// Surface is the render target resized by the viewport.
type Surface interface {
	// Resize reconfigures the surface to the given pixel size.
	Resize(width, height int)
}

// Viewport owns the current drawable size, aspect ratio and capped pixel ratio.
type Viewport interface {
	// Resize applies a new drawable size: aspect = width/height, camera projection update,
	// surface resize and pixel ratio re-cap. Non-positive sizes (minimised windows) are ignored.
	// Calling Resize again with the same size leaves the state unchanged.
	//
	// Parameters:
	//   - width, height: new drawable size in pixels
	Resize(width, height int)

	// SetDevicePixelRatio records the display's device pixel ratio and re-caps it.
	//
	// Parameters:
	//   - dpr: the uncapped device pixel ratio
	SetDevicePixelRatio(dpr float32)

	// OnPixelRatioChange registers a handler called with the capped pixel ratio whenever it changes.
	OnPixelRatioChange(handler func(ratio float32))

	// Width returns the drawable width in pixels.
	Width() int

	// Height returns the drawable height in pixels.
	Height() int

	// Aspect returns width / height.
	Aspect() float32

	// PixelRatio returns min(devicePixelRatio, max pixel ratio).
	PixelRatio() float32
}

type viewportImpl struct {
	width  int
	height int
	aspect float32

	devicePixelRatio float32
	maxPixelRatio    float32
	pixelRatio       float32

	camera     camera.Camera
	controller camera.OrbitController
	surface    Surface

	pixelRatioHandlers []func(ratio float32)
}

var _ Viewport = &viewportImpl{}

// NewViewport creates a Viewport and applies the initial size.
//
// Parameters:
//   - width, height: initial drawable size in pixels
//   - options: functional options wiring the camera, controller and surface
//
// Returns:
//   - Viewport: the configured viewport
func NewViewport(width, height int, options ...ViewportBuilderOption) Viewport {
	v := &viewportImpl{
		aspect:           1,
		devicePixelRatio: 1,
		maxPixelRatio:    DefaultMaxPixelRatio,
	}
	for _, opt := range options {
		opt(v)
	}
	v.pixelRatio = capRatio(v.devicePixelRatio, v.maxPixelRatio)
	v.Resize(width, height)
	return v
}

func (v *viewportImpl) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.width = width
	v.height = height
	v.aspect = float32(width) / float32(height)

	if v.camera != nil {
		v.camera.SetAspect(v.aspect)
	}
	if v.controller != nil {
		v.controller.SetViewportSize(width, height)
	}
	if v.surface != nil {
		v.surface.Resize(width, height)
	}
	v.setPixelRatio(capRatio(v.devicePixelRatio, v.maxPixelRatio))
}

func (v *viewportImpl) SetDevicePixelRatio(dpr float32) {
	if dpr <= 0 {
		return
	}
	v.devicePixelRatio = dpr
	v.setPixelRatio(capRatio(dpr, v.maxPixelRatio))
}

func (v *viewportImpl) OnPixelRatioChange(handler func(ratio float32)) {
	if handler != nil {
		v.pixelRatioHandlers = append(v.pixelRatioHandlers, handler)
	}
}

func (v *viewportImpl) Width() int {
	return v.width
}

func (v *viewportImpl) Height() int {
	return v.height
}

func (v *viewportImpl) Aspect() float32 {
	return v.aspect
}

func (v *viewportImpl) PixelRatio() float32 {
	return v.pixelRatio
}

func (v *viewportImpl) setPixelRatio(ratio float32) {
	if ratio == v.pixelRatio {
		return
	}
	v.pixelRatio = ratio
	for _, h := range v.pixelRatioHandlers {
		h(ratio)
	}
}

func capRatio(dpr, maxRatio float32) float32 {
	return common.Clamp(dpr, 0, maxRatio)
}
