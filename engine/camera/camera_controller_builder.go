package camera

// OrbitControllerOption is a functional option for configuring an OrbitController.
type OrbitControllerOption func(*orbitControllerImpl)

// WithPosition sets the initial camera position. The spherical offset is derived from it
// and the target after all options are applied.
//
// Parameters:
//   - x, y, z: world-space camera position
//
// Returns:
//   - OrbitControllerOption: functional option to set the position
func WithPosition(x, y, z float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.position[0], oc.position[1], oc.position[2] = x, y, z
	}
}

// WithTarget sets the look-at/pivot point.
//
// Parameters:
//   - x, y, z: world-space target position
//
// Returns:
//   - OrbitControllerOption: functional option to set the target position
func WithTarget(x, y, z float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.target[0], oc.target[1], oc.target[2] = x, y, z
	}
}

// WithDamping enables inertial damping with the given factor in (0, 1].
// A factor of 1 applies all pending motion immediately.
//
// Parameters:
//   - factor: fraction of pending motion applied per Update
//
// Returns:
//   - OrbitControllerOption: functional option to set damping
func WithDamping(factor float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		if factor > 0 && factor <= 1 {
			oc.dampingFactor = factor
		}
	}
}

// WithRadiusBounds sets the minimum and maximum orbit radius.
//
// Parameters:
//   - min: minimum zoom distance
//   - max: maximum zoom distance
//
// Returns:
//   - OrbitControllerOption: functional option to set radius bounds
func WithRadiusBounds(min, max float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.minRadius = min
		oc.maxRadius = max
	}
}

// WithRotateSpeed sets the drag rotation multiplier.
//
// Parameters:
//   - speed: multiplier for pointer movement
//
// Returns:
//   - OrbitControllerOption: functional option to set rotation speed
func WithRotateSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.rotateSpeed = speed
	}
}

// WithZoomSpeed sets the dolly speed multiplier.
//
// Parameters:
//   - speed: multiplier for scroll input
//
// Returns:
//   - OrbitControllerOption: functional option to set zoom speed
func WithZoomSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitControllerImpl) {
		oc.zoomSpeed = speed
	}
}
