package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Loop serializes controller work onto a single goroutine. Background work
// started with Go reports back through Post.
type Loop struct {
	logger  *slog.Logger
	events  chan func()
	quit    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	onPanic func(error)
}

type LoopOption func(*Loop)

// WithPanicHandler sets the function that receives recovered panics. It runs on the loop goroutine.
func WithPanicHandler(fn func(error)) LoopOption {
	return func(l *Loop) {
		l.onPanic = fn
	}
}

func NewLoop(logger *slog.Logger, opts ...LoopOption) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		logger: logger,
		events: make(chan func(), 256),
		quit:   make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// SetPanicHandler replaces the panic handler. Call it before Run.
func (l *Loop) SetPanicHandler(fn func(error)) {
	l.onPanic = fn
}

// Run processes posted work until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("loop.start")
	defer l.logger.Debug("loop.stop")
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.quit:
			return nil
		case fn := <-l.events:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.report(fmt.Errorf("panic on loop: %v", r))
		}
	}()
	fn()
}

func (l *Loop) report(err error) {
	l.logger.Error("loop.panic", "error", err)
	if l.onPanic != nil {
		l.onPanic(err)
	}
}

// Post queues fn on the loop goroutine. It is dropped once the loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.events <- fn:
	case <-l.quit:
	}
}

// Go runs fn on a new goroutine. A panic in fn is reported on the loop.
func (l *Loop) Go(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic in background work: %v", r)
				l.Post(func() { l.report(err) })
			}
		}()
		fn()
	}()
}

// Call runs fn on the loop and waits for it. It returns false if the loop stopped first.
func (l *Loop) Call(fn func()) bool {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return true
	case <-l.quit:
		return false
	}
}

func (l *Loop) Stop() {
	l.once.Do(func() { close(l.quit) })
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.quit
}

// Wait blocks until background work started with Go has returned.
func (l *Loop) Wait() {
	l.wg.Wait()
}
