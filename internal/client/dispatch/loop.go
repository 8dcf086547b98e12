// Package dispatch provides the client's UI execution context: a single
// goroutine that runs posted funcs in order, and Submit, which runs work in
// the background and delivers its result back onto that goroutine.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bugboard/bugboard/internal/apperror"
	"github.com/bugboard/bugboard/internal/logger"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned when posting to a loop that has stopped.
	ErrClosed = errors.New("dispatch: loop closed")
	// ErrRunning is returned by Run when the loop is already running.
	ErrRunning = errors.New("dispatch: loop already running")
)

// Loop is a FIFO of funcs executed one at a time by Run. Posting never
// blocks.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}

	// pending counts tracked work not yet finished on the loop; idle is
	// signalled on mu when it drops to zero.
	pending int
	idle    *sync.Cond

	running atomic.Bool
	log     *zap.Logger
}

// NewLoop returns a loop; call Run to start executing posted funcs.
func NewLoop(log *zap.Logger) *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		log:  logger.OrNop(log),
	}
	l.idle = sync.NewCond(&l.mu)
	return l
}

// Post queues f for execution on the loop. It returns false when the loop
// has stopped and f will never run.
func (l *Loop) Post(f func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, f)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Complete queues f like Post, but f counts as tracked work: Wait does not
// return before it has run. Use it for continuations that skip Submit, such
// as cached results and deferred failures.
func (l *Loop) Complete(f func()) bool {
	l.begin()
	if !l.Post(func() {
		defer l.end()
		f()
	}) {
		l.end()
		return false
	}
	return true
}

// Do runs f on the loop and waits for it to finish. It must not be called
// from the loop itself.
func (l *Loop) Do(f func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		f()
	}) {
		return ErrClosed
	}
	<-done
	return nil
}

// Run executes posted funcs until ctx is done. Funcs still queued at that
// point are run before Run returns; later posts are rejected.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.running.Store(false)

	for {
		for _, f := range l.take() {
			l.exec(f)
		}
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			l.mu.Unlock()
			for _, f := range l.take() {
				l.exec(f)
			}
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Wait blocks until every task started with Submit has finished and its
// continuation has run, and every func queued with Complete has run. Work
// tracked while Wait is blocked extends the wait. Wait must not be called
// from the loop itself.
func (l *Loop) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.pending > 0 {
		l.idle.Wait()
	}
}

func (l *Loop) begin() {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()
}

func (l *Loop) end() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending--
	if l.pending == 0 {
		l.idle.Broadcast()
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}

func (l *Loop) exec(f func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("panic on ui loop", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	f()
}

// Submit runs task on a new goroutine and posts done(result, err) to l. A
// panic inside task is delivered to done as an unexpected error. done runs
// exactly once, on the loop, unless the loop has stopped.
func Submit[T any](l *Loop, task func(ctx context.Context) (T, error), done func(T, error)) {
	l.begin()
	go func() {
		v, err := runTask(task)
		if !l.Post(func() {
			defer l.end()
			done(v, err)
		}) {
			l.end()
			l.log.Warn("ui loop closed, dropping task result", zap.Error(err))
		}
	}()
}

func runTask[T any](task func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperror.NewUnexpectedError("background task panicked", fmt.Errorf("%v", r))
		}
	}()
	return task(context.Background())
}

// Generation hands out increasing tokens; only the latest one is current.
// A refresh takes a token before starting and applies its result only if
// the token is still current when the result arrives.
type Generation struct {
	n atomic.Uint64
}

// Next invalidates earlier tokens and returns a new one.
func (g *Generation) Next() uint64 { return g.n.Add(1) }

// Current reports whether tok is the latest token.
func (g *Generation) Current(tok uint64) bool { return g.n.Load() == tok }
