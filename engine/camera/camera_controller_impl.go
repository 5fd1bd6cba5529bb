package camera

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultDampingFactor matches the inertia of browser orbit controls.
	DefaultDampingFactor float32 = 0.05

	// settleEpsilon is the pending motion below which damping snaps to rest.
	settleEpsilon float32 = 1e-6

	// polarEpsilon keeps the camera off the poles so LookAt never degenerates.
	polarEpsilon float32 = 1e-6
)

// orbitControllerImpl is the damped spherical-coordinate implementation of OrbitController.
type orbitControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3

	// Spherical offset of position from target; polar is measured from +Y.
	radius  float32
	azimuth float32
	polar   float32

	// Pending motion not yet applied by Update.
	deltaAzimuth float32
	deltaPolar   float32
	scale        float32

	minRadius float32
	maxRadius float32

	dampingFactor float32
	rotateSpeed   float32
	zoomSpeed     float32

	viewportHeight float32

	dragging bool
	lastX    float32
	lastY    float32
}

var _ OrbitController = &orbitControllerImpl{}

// NewOrbitController creates a damped orbit controller.
// Defaults: position (4, 2, 4) looking at the origin, damping 0.05.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the newly created controller
func NewOrbitController(options ...OrbitControllerOption) OrbitController {
	oc := &orbitControllerImpl{
		mu:             &sync.Mutex{},
		position:       mgl32.Vec3{4, 2, 4},
		scale:          1,
		minRadius:      0.5,
		maxRadius:      50,
		dampingFactor:  DefaultDampingFactor,
		rotateSpeed:    1,
		zoomSpeed:      1,
		viewportHeight: 720,
	}
	for _, option := range options {
		option(oc)
	}
	oc.syncSpherical()
	return oc
}

// syncSpherical derives radius and angles from position and target.
// Caller must hold the mutex.
func (oc *orbitControllerImpl) syncSpherical() {
	offset := oc.position.Sub(oc.target)
	oc.radius = offset.Len()
	if oc.radius == 0 {
		oc.azimuth, oc.polar = 0, math32.Pi/2
		return
	}
	oc.azimuth = math32.Atan2(offset.X(), offset.Z())
	oc.polar = math32.Acos(mgl32.Clamp(offset.Y()/oc.radius, -1, 1))
}

// updatePosition recomputes position from target and the spherical offset.
// Caller must hold the mutex.
func (oc *orbitControllerImpl) updatePosition() {
	sinPolar := math32.Sin(oc.polar)
	offset := mgl32.Vec3{
		oc.radius * sinPolar * math32.Sin(oc.azimuth),
		oc.radius * math32.Cos(oc.polar),
		oc.radius * sinPolar * math32.Cos(oc.azimuth),
	}
	oc.position = oc.target.Add(offset)
}

func (oc *orbitControllerImpl) Position() (x, y, z float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.position.Elem()
}

func (oc *orbitControllerImpl) Target() (x, y, z float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.target.Elem()
}

func (oc *orbitControllerImpl) SetTarget(x, y, z float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.target = mgl32.Vec3{x, y, z}
	oc.updatePosition()
}

func (oc *orbitControllerImpl) SetPosition(x, y, z float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.position = mgl32.Vec3{x, y, z}
	oc.syncSpherical()
}

func (oc *orbitControllerImpl) SetViewportSize(_, height int) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if height > 0 {
		oc.viewportHeight = float32(height)
	}
}

func (oc *orbitControllerImpl) PointerDown(x, y float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.dragging = true
	oc.lastX, oc.lastY = x, y
}

// PointerMove maps a full viewport-height drag to one full turn, as browser orbit controls do.
func (oc *orbitControllerImpl) PointerMove(x, y float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if !oc.dragging {
		return
	}
	dx, dy := x-oc.lastX, y-oc.lastY
	oc.lastX, oc.lastY = x, y

	turn := 2 * math32.Pi * oc.rotateSpeed / oc.viewportHeight
	oc.deltaAzimuth -= dx * turn
	oc.deltaPolar -= dy * turn
}

func (oc *orbitControllerImpl) PointerUp(_, _ float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.dragging = false
}

func (oc *orbitControllerImpl) Zoom(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	step := math32.Pow(0.95, oc.zoomSpeed*math32.Abs(delta))
	if delta > 0 {
		oc.scale *= step
	} else if delta < 0 {
		oc.scale /= step
	}
}

func (oc *orbitControllerImpl) Update() bool {
	oc.mu.Lock()
	defer oc.mu.Unlock()

	before := oc.position

	oc.azimuth += oc.deltaAzimuth * oc.dampingFactor
	oc.polar += oc.deltaPolar * oc.dampingFactor
	oc.polar = mgl32.Clamp(oc.polar, polarEpsilon, math32.Pi-polarEpsilon)

	oc.radius = mgl32.Clamp(oc.radius*oc.scale, oc.minRadius, oc.maxRadius)
	oc.scale = 1

	oc.deltaAzimuth *= 1 - oc.dampingFactor
	oc.deltaPolar *= 1 - oc.dampingFactor
	if math32.Abs(oc.deltaAzimuth) < settleEpsilon {
		oc.deltaAzimuth = 0
	}
	if math32.Abs(oc.deltaPolar) < settleEpsilon {
		oc.deltaPolar = 0
	}

	oc.updatePosition()
	return !oc.position.ApproxEqualThreshold(before, settleEpsilon)
}

func (oc *orbitControllerImpl) Radius() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.radius
}

func (oc *orbitControllerImpl) Azimuth() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.azimuth
}

func (oc *orbitControllerImpl) Polar() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.polar
}

func (oc *orbitControllerImpl) DampingFactor() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.dampingFactor
}
