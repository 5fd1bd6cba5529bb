package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-portal/engine/camera"
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow closes after closeAfter polls; zero means never.
type fakeWindow struct {
	polls      int
	closeAfter int
}

func (w *fakeWindow) SetResizeCallback(func(width, height int))  {}
func (w *fakeWindow) SetContentScaleCallback(func(scale float32)) {}
func (w *fakeWindow) SetScrollCallback(func(delta float32))       {}
func (w *fakeWindow) SetPointerDownCallback(func(x, y float32))   {}
func (w *fakeWindow) SetPointerUpCallback(func(x, y float32))     {}
func (w *fakeWindow) SetPointerMoveCallback(func(x, y float32))   {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor  { return nil }
func (w *fakeWindow) IsRunning() bool                             { return true }
func (w *fakeWindow) Close() error                                { return nil }
func (w *fakeWindow) Width() int                                  { return 800 }
func (w *fakeWindow) Height() int                                 { return 600 }
func (w *fakeWindow) PixelRatio() float32                         { return 1 }

func (w *fakeWindow) PollEvents() bool {
	w.polls++
	return w.closeAfter == 0 || w.polls <= w.closeAfter
}

type fakeRenderer struct {
	frames int
	err    error
}

func (r *fakeRenderer) Render(scene.Scene, camera.GPUCameraUniform) error {
	r.frames++
	return r.err
}

type recordingClock struct {
	times []float32
}

func (c *recordingClock) SetTime(seconds float32) {
	c.times = append(c.times, seconds)
}

// clockFunc adapts a function to Clock.
type clockFunc func(seconds float32)

func (f clockFunc) SetTime(seconds float32) { f(seconds) }

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeRenderer{}
	var e Engine
	e = NewEngine(
		WithWindow(&fakeWindow{}),
		WithRenderer(r),
		WithScene(scene.NewScene()),
		WithCamera(camera.NewCamera(camera.WithController(camera.NewOrbitController()))),
		WithClocks(clockFunc(func(float32) {
			if e.Frames() == 2 {
				cancel()
			}
		})),
	)

	err := e.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(3), e.Frames())
	assert.Equal(t, 3, r.frames)
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	w := &fakeWindow{closeAfter: 4}
	e := NewEngine(WithWindow(w))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(4), e.Frames())
	assert.Equal(t, 5, w.polls)
}

func TestQuit(t *testing.T) {
	var e Engine
	e = NewEngine(WithWindow(&fakeWindow{}), WithClocks(clockFunc(func(float32) { e.Quit() })))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(1), e.Frames())
	assert.NotPanics(t, e.Quit)
}

func TestRunFeedsElapsedTimeToClocks(t *testing.T) {
	clock := &recordingClock{}
	e := NewEngine(
		WithWindow(&fakeWindow{closeAfter: 3}),
		WithClocks(clock),
		withClock(steppingClock(250*time.Millisecond)),
	)

	require.NoError(t, e.Run(context.Background()))
	require.Len(t, clock.times, 3)
	assert.Greater(t, clock.times[0], float32(0))
	assert.Less(t, clock.times[0], clock.times[1])
	assert.Less(t, clock.times[1], clock.times[2])
}

func TestRunKeepsGoingWhenFramesFail(t *testing.T) {
	r := &fakeRenderer{err: errors.New("surface lost")}
	e := NewEngine(
		WithWindow(&fakeWindow{closeAfter: 3}),
		WithRenderer(r),
		WithScene(scene.NewScene()),
		WithCamera(camera.NewCamera()),
	)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, r.frames)
}

func TestTasksRunOnLoop(t *testing.T) {
	q := NewTaskQueue()
	e := NewEngine(WithWindow(&fakeWindow{closeAfter: 2}), WithTaskQueue(q))

	var wg sync.WaitGroup
	var ran []int
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Post(func() { ran = append(ran, i) })
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, q.Len())

	require.NoError(t, e.Run(context.Background()))
	assert.Len(t, ran, 5)
	assert.Zero(t, q.Len())
	assert.Same(t, q, e.Tasks())
}

func TestTaskQueueDefersNestedPosts(t *testing.T) {
	q := NewTaskQueue()
	var order []string
	q.Post(func() {
		order = append(order, "first")
		q.Post(func() { order = append(order, "nested") })
	})
	q.Post(nil)

	assert.Equal(t, 1, q.Drain())
	assert.Equal(t, []string{"first"}, order)
	assert.Equal(t, 1, q.Drain())
	assert.Equal(t, []string{"first", "nested"}, order)
	assert.Zero(t, q.Drain())
}

func TestWithRenderFrameLimit(t *testing.T) {
	e := NewEngine(WithRenderFrameLimit(50)).(*engine)
	assert.Equal(t, 20*time.Millisecond, e.renderFrameLimit)

	e = NewEngine(WithRenderFrameLimit(50), WithRenderFrameLimit(0)).(*engine)
	assert.Zero(t, e.renderFrameLimit)
}
