package viewport

import "github.com/Carmen-Shannon/oxy-portal/engine/camera"

// ViewportBuilderOption is a functional option for configuring a viewport.
type ViewportBuilderOption func(*viewportImpl)

// WithCamera sets the camera whose aspect ratio follows the viewport.
func WithCamera(c camera.Camera) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.camera = c
	}
}

// WithController sets the orbit controller that maps drags using the viewport height.
func WithController(c camera.OrbitController) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.controller = c
	}
}

// WithSurface sets the render surface resized alongside the viewport.
func WithSurface(s Surface) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.surface = s
	}
}

// WithDevicePixelRatio sets the initial device pixel ratio.
//
// Parameters:
//   - dpr: the display's content scale
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithDevicePixelRatio(dpr float32) ViewportBuilderOption {
	return func(v *viewportImpl) {
		if dpr > 0 {
			v.devicePixelRatio = dpr
		}
	}
}

// WithMaxPixelRatio overrides the pixel ratio cap (default 2).
//
// Parameters:
//   - ratio: the maximum pixel ratio
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithMaxPixelRatio(ratio float32) ViewportBuilderOption {
	return func(v *viewportImpl) {
		if ratio > 0 {
			v.maxPixelRatio = ratio
		}
	}
}
