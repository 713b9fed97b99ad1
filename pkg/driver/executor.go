package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a unit of work scheduled on an Executor.
type Task func(ctx context.Context) error

// TaskStatus tracks a task through its lifecycle.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskSucceeded
	TaskFailed
	TaskCancelled
)

func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskSucceeded:
		return "succeeded"
	case TaskFailed:
		return "failed"
	case TaskCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("task_status_%d", int(s))
	}
}

// ErrExecutorClosed is reported by tasks submitted after Shutdown.
var ErrExecutorClosed = errors.New("executor closed")

// Executor abstracts how fixture programs are scheduled. Each task must own
// its own session; executors never share interpreter state between tasks.
type Executor interface {
	Submit(ctx context.Context, task Task) *Handle
	Flush()
	Shutdown() error
}

// NewExecutor returns a SerialExecutor for parallelism <= 1 and a bounded
// GoroutineExecutor otherwise.
func NewExecutor(parallelism int) Executor {
	if parallelism <= 1 {
		return NewSerialExecutor()
	}
	return NewGoroutineExecutor(parallelism)
}

// Handle observes one submitted task.
type Handle struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	status TaskStatus
	err    error
	done   chan struct{}
}

func newHandle(parent context.Context) *Handle {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Handle{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Status returns the current task status.
func (h *Handle) Status() TaskStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Err returns the task error once finished.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the task finishes and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.Err()
}

// Done is closed when the task finishes.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cancel cancels the task context. A task that has not started is skipped.
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) markStarted() {
	h.mu.Lock()
	if h.status == TaskPending {
		h.status = TaskRunning
	}
	h.mu.Unlock()
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status >= TaskSucceeded {
		return
	}
	switch {
	case err == nil:
		h.status = TaskSucceeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.status = TaskCancelled
	default:
		h.status = TaskFailed
	}
	h.err = err
	h.cancel()
	close(h.done)
}

type executorBase struct{}

// safeInvoke runs task, converting a panic into a task failure.
func (b *executorBase) safeInvoke(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return task(ctx)
}

func (b *executorBase) run(handle *Handle, task Task) {
	handle.markStarted()
	handle.finish(b.safeInvoke(handle.ctx, task))
}

// GoroutineExecutor runs each task on its own goroutine, at most limit at a
// time.
type GoroutineExecutor struct {
	executorBase

	sem    chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewGoroutineExecutor(limit int) *GoroutineExecutor {
	if limit < 1 {
		limit = 1
	}
	return &GoroutineExecutor{sem: make(chan struct{}, limit)}
}

func (e *GoroutineExecutor) Submit(ctx context.Context, task Task) *Handle {
	handle := newHandle(ctx)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		handle.finish(ErrExecutorClosed)
		return handle
	}
	e.wg.Add(1)
	e.mu.Unlock()
	go func() {
		defer e.wg.Done()
		select {
		case e.sem <- struct{}{}:
		case <-handle.ctx.Done():
			handle.finish(handle.ctx.Err())
			return
		}
		defer func() { <-e.sem }()
		e.run(handle, task)
	}()
	return handle
}

// Flush waits for every submitted task to finish.
func (e *GoroutineExecutor) Flush() {
	e.wg.Wait()
}

// Shutdown stops accepting tasks and waits for running ones.
func (e *GoroutineExecutor) Shutdown() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
	return nil
}

type serialTask struct {
	handle *Handle
	task   Task
}

// SerialExecutor executes tasks on a single worker goroutine in submission
// order, giving deterministic scheduling for tests.
type SerialExecutor struct {
	executorBase

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []serialTask
	closed  bool
	active  bool
	stopped bool
}

func NewSerialExecutor() *SerialExecutor {
	exec := &SerialExecutor{}
	exec.cond = sync.NewCond(&exec.mu)
	go exec.loop()
	return exec
}

func (e *SerialExecutor) Submit(ctx context.Context, task Task) *Handle {
	handle := newHandle(ctx)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		handle.finish(ErrExecutorClosed)
		return handle
	}
	e.queue = append(e.queue, serialTask{handle: handle, task: task})
	e.cond.Broadcast()
	e.mu.Unlock()
	return handle
}

func (e *SerialExecutor) loop() {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.closed && len(e.queue) == 0 {
			e.stopped = true
			e.cond.Broadcast()
			e.mu.Unlock()
			return
		}
		next := e.queue[0]
		e.queue = e.queue[1:]
		e.active = true
		e.mu.Unlock()

		e.run(next.handle, next.task)

		e.mu.Lock()
		e.active = false
		e.cond.Broadcast()
		e.mu.Unlock()
	}
}

// Flush waits until the queue is drained and no task is running.
func (e *SerialExecutor) Flush() {
	e.mu.Lock()
	for len(e.queue) > 0 || e.active {
		e.cond.Wait()
	}
	e.mu.Unlock()
}

// Close stops accepting tasks. Queued tasks still run.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()
}

// Shutdown closes the executor and waits for the worker to exit.
func (e *SerialExecutor) Shutdown() error {
	e.Close()
	e.mu.Lock()
	for !e.stopped {
		e.cond.Wait()
	}
	e.mu.Unlock()
	return nil
}
