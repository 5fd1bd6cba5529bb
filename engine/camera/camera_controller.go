package camera

// OrbitController orbits the camera around a target point with inertial damping.
// Pointer drags and scroll input accumulate pending spherical deltas; each Update call
// applies a damped fraction of them, so motion keeps settling after input ends.
// Controllers own positional state (position, target); Camera reads from them.
type OrbitController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// Target returns the look-at/pivot point.
	//
	// Returns:
	//   - x, y, z: world-space target position
	Target() (x, y, z float32)

	// SetTarget sets the pivot point, keeping the current spherical offset.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetTarget(x, y, z float32)

	// SetPosition places the camera at a world-space position and re-derives the spherical offset.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// SetViewportSize tells the controller the drawable size so drags map to rotation angles.
	//
	// Parameters:
	//   - width, height: viewport size in pixels
	SetViewportSize(width, height int)

	// PointerDown starts a drag at the given cursor position.
	PointerDown(x, y float32)

	// PointerMove feeds a cursor position; while dragging it accumulates rotation.
	PointerMove(x, y float32)

	// PointerUp ends the current drag.
	PointerUp(x, y float32)

	// Zoom dollies the camera. Positive delta moves toward the target.
	//
	// Parameters:
	//   - delta: scroll amount, one unit per wheel notch
	Zoom(delta float32)

	// Update advances damping by one step.
	//
	// Returns:
	//   - bool: true if the camera moved this step
	Update() bool

	// Radius returns the current distance from the target.
	Radius() float32

	// Azimuth returns the current horizontal angle around the Y axis in radians.
	Azimuth() float32

	// Polar returns the current angle from the +Y axis in radians.
	Polar() float32

	// DampingFactor returns the fraction of pending motion applied per Update.
	DampingFactor() float32
}
