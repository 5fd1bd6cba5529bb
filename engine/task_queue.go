package engine

import "sync"

// TaskQueue collects closures posted from any goroutine and runs them on the render loop.
// It satisfies the loader and debug Dispatcher interfaces.
type TaskQueue struct {
	mu    sync.Mutex
	tasks []func()
}

// NewTaskQueue creates an empty queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Post queues fn for the next Drain. Nil closures are ignored.
//
// Parameters:
//   - fn: the closure to run on the loop goroutine
func (q *TaskQueue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
}

// Drain runs every closure queued so far in posting order. Closures posted while draining
// wait for the next call.
//
// Returns:
//   - int: the number of closures run
func (q *TaskQueue) Drain() int {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

// Len returns the number of queued closures.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
