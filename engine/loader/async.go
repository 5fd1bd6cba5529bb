package loader

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-portal/common"
	"github.com/Carmen-Shannon/oxy-portal/engine/scene"
	"go.uber.org/zap"
)

// Dispatcher receives completion callbacks from worker goroutines and runs them on the
// goroutine that owns the scene.
type Dispatcher interface {
	// Post queues fn to run later on the owning goroutine.
	Post(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

// Post calls f(fn).
func (f DispatcherFunc) Post(fn func()) {
	f(fn)
}

// asyncLoader is the implementation of the Async interface.
type asyncLoader struct {
	textures TextureLoader
	meshes   MeshLoader
	dispatch Dispatcher
	log      *zap.Logger

	pool   worker.DynamicWorkerPool
	nextID atomic.Int64
	wg     sync.WaitGroup

	workers     int
	queueSize   int
	idleTimeout time.Duration
}

// Async runs texture and mesh loads on a worker pool. Exactly one of onLoad or onError
// is posted to the dispatcher per request.
type Async interface {
	// LoadTexture decodes a texture off the calling goroutine.
	//
	// Parameters:
	//   - path: the image path
	//   - onLoad: called with the staging data on success
	//   - onError: called with the load error on failure
	LoadTexture(path string, onLoad func(*common.TextureStagingData), onError func(error))

	// LoadMesh imports a model off the calling goroutine.
	//
	// Parameters:
	//   - path: the model path
	//   - onLoad: called with the loaded fragment on success
	//   - onError: called with the load error on failure
	LoadMesh(path string, onLoad func(*scene.Node), onError func(error))

	// Wait blocks until every submitted load has posted its callback.
	Wait()

	// Close waits for outstanding loads and stops the worker pool.
	Close()
}

var _ Async = &asyncLoader{}

// NewAsync creates an Async loader and starts its worker pool.
//
// Parameters:
//   - textures: the texture loader run on workers
//   - meshes: the mesh loader run on workers
//   - dispatch: where completion callbacks are posted
//   - options: a variadic list of AsyncBuilderOption functions
//
// Returns:
//   - Async: the async loader
func NewAsync(textures TextureLoader, meshes MeshLoader, dispatch Dispatcher, options ...AsyncBuilderOption) Async {
	a := &asyncLoader{
		textures:    textures,
		meshes:      meshes,
		dispatch:    dispatch,
		log:         zap.NewNop(),
		workers:     2,
		queueSize:   8,
		idleTimeout: 5 * time.Second,
	}
	for _, option := range options {
		option(a)
	}
	a.pool = worker.NewDynamicWorkerPool(a.workers, a.queueSize, a.idleTimeout)
	return a
}

func (a *asyncLoader) LoadTexture(path string, onLoad func(*common.TextureStagingData), onError func(error)) {
	a.submit(path, func() (any, error) {
		tex, err := a.textures.Load(path)
		if err != nil {
			a.fail(path, err, onError)
			return nil, err
		}
		a.dispatch.Post(func() { onLoad(tex) })
		return tex, nil
	})
}

func (a *asyncLoader) LoadMesh(path string, onLoad func(*scene.Node), onError func(error)) {
	a.submit(path, func() (any, error) {
		fragment, err := a.meshes.Load(path)
		if err != nil {
			a.fail(path, err, onError)
			return nil, err
		}
		a.dispatch.Post(func() { onLoad(fragment) })
		return fragment, nil
	})
}

func (a *asyncLoader) Wait() {
	a.wg.Wait()
}

func (a *asyncLoader) Close() {
	a.wg.Wait()
	a.pool.Stop()
}

func (a *asyncLoader) submit(path string, do func() (any, error)) {
	a.wg.Add(1)
	id := int(a.nextID.Add(1))
	a.log.Debug("load submitted", zap.Int("task", id), zap.String("path", path))
	a.pool.SubmitTask(worker.Task{
		ID:      id,
		Payload: path,
		Do: func() (any, error) {
			defer a.wg.Done()
			return do()
		},
	})
}

func (a *asyncLoader) fail(path string, err error, onError func(error)) {
	a.log.Error("load failed", zap.String("path", path), zap.Error(err))
	if onError != nil {
		a.dispatch.Post(func() { onError(err) })
	}
}

// AsyncBuilderOption is a functional option for configuring an Async loader.
type AsyncBuilderOption func(*asyncLoader)

// WithAsyncLogger sets the logger used for load failures.
func WithAsyncLogger(log *zap.Logger) AsyncBuilderOption {
	return func(a *asyncLoader) {
		if log != nil {
			a.log = log.Named("async")
		}
	}
}

// WithPool sizes the worker pool.
//
// Parameters:
//   - workers: maximum concurrent loads
//   - queueSize: buffered task slots
//   - idleTimeout: worker idle timeout
//
// Returns:
//   - AsyncBuilderOption: a function that applies the pool sizing
func WithPool(workers, queueSize int, idleTimeout time.Duration) AsyncBuilderOption {
	return func(a *asyncLoader) {
		if workers > 0 {
			a.workers = workers
		}
		if queueSize > 0 {
			a.queueSize = queueSize
		}
		if idleTimeout > 0 {
			a.idleTimeout = idleTimeout
		}
	}
}
