package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-portal/engine/camera"
	"github.com/Carmen-Shannon/oxy-portal/engine/profiler"
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"github.com/Carmen-Shannon/oxy-portal/engine/window"
	"go.uber.org/zap"
)

// FrameRenderer draws one frame of a scene through a camera.
type FrameRenderer interface {
	Render(s scene.Scene, cam camera.GPUCameraUniform) error
}

// Clock receives the elapsed time every tick, e.g. to drive time uniforms.
type Clock interface {
	SetTime(seconds float32)
}

// engine implements the Engine interface.
type engine struct {
	log *zap.Logger
	now func() time.Time

	window   window.Window
	renderer FrameRenderer
	scene    scene.Scene
	camera   camera.Camera
	clocks   []Clock
	tasks    *TaskQueue

	profiler         *profiler.Profiler
	profilingEnabled bool
	profilerInterval time.Duration

	renderFrameLimit time.Duration // minimum frame duration; 0 = follow the present mode

	quitChannel chan struct{}
	quitOnce    sync.Once

	frames        uint64
	renderFailing bool
}

// Engine drives the render loop on the calling goroutine.
//
// Each tick polls window events, drains the task queue, reads the elapsed time since Run
// started, updates the orbit controller and camera, hands the elapsed time to every clock,
// renders the scene and ticks the profiler. Frame cadence follows the surface present mode
// unless a render frame limit is set.
type Engine interface {
	// Window returns the window the loop polls.
	Window() window.Window

	// Tasks returns the queue drained at the start of every tick.
	Tasks() *TaskQueue

	// Post queues fn on the task queue.
	//
	// Parameters:
	//   - fn: the closure to run on the loop goroutine
	Post(fn func())

	// Frames returns the number of completed ticks.
	Frames() uint64

	// Run loops until the context is cancelled, Quit is called or the window closes.
	// Must be called from the goroutine that created the window.
	//
	// Parameters:
	//   - ctx: cancelling it stops the loop after the current tick
	//
	// Returns:
	//   - error: ctx.Err() when the context was cancelled, nil otherwise
	Run(ctx context.Context) error

	// Quit stops the loop after the current tick. Safe to call multiple times and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options.
//
// Parameters:
//   - options: functional options wiring the window, renderer, scene, camera and clocks
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		log:         zap.NewNop(),
		now:         time.Now,
		tasks:       NewTaskQueue(),
		quitChannel: make(chan struct{}),
	}

	for _, opt := range options {
		opt(e)
	}

	e.profiler = profiler.NewProfiler(e.log, e.profilerInterval)
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Tasks() *TaskQueue {
	return e.tasks
}

func (e *engine) Post(fn func()) {
	e.tasks.Post(fn)
}

func (e *engine) Frames() uint64 {
	return e.frames
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Run(ctx context.Context) error {
	start := e.now()
	e.log.Info("render loop started")

	for {
		select {
		case <-ctx.Done():
			e.log.Info("render loop stopped", zap.String("reason", "context"), zap.Uint64("frames", e.frames))
			return ctx.Err()
		case <-e.quitChannel:
			e.log.Info("render loop stopped", zap.String("reason", "quit"), zap.Uint64("frames", e.frames))
			return nil
		default:
		}

		frameStart := e.now()
		if e.window != nil && !e.window.PollEvents() {
			e.log.Info("render loop stopped", zap.String("reason", "window closed"), zap.Uint64("frames", e.frames))
			return nil
		}

		e.tick(float32(frameStart.Sub(start).Seconds()))

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(frameStart); remaining > 0 {
				select {
				case <-ctx.Done():
				case <-e.quitChannel:
				case <-time.After(remaining):
				}
			}
		}
	}
}

// tick runs one frame after events were polled.
func (e *engine) tick(elapsed float32) {
	e.tasks.Drain()

	if e.camera != nil {
		if ctrl := e.camera.Controller(); ctrl != nil {
			ctrl.Update()
		}
		e.camera.Update()
	}
	for _, c := range e.clocks {
		c.SetTime(elapsed)
	}

	if e.renderer != nil && e.scene != nil && e.camera != nil {
		err := e.renderer.Render(e.scene, e.camera.Uniform())
		switch {
		case err != nil && !e.renderFailing:
			e.renderFailing = true
			e.log.Warn("frame failed", zap.Uint64("frame", e.frames), zap.Error(err))
		case err == nil && e.renderFailing:
			e.renderFailing = false
			e.log.Info("rendering recovered", zap.Uint64("frame", e.frames))
		}
	}

	e.frames++
	if e.profilingEnabled {
		e.profiler.Tick()
	}
}
