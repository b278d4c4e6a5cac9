package controller

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is a scheduled callback that can be cancelled.
type Task interface {
	Stop()
}

// Scheduler runs callbacks later on the loop goroutine.
type Scheduler interface {
	// Every runs fn each d until the task is stopped. The first run is after d.
	Every(d time.Duration, fn func()) Task
	// After runs fn once after d unless the task is stopped first.
	After(d time.Duration, fn func()) Task
}

// Executor splits work between the loop goroutine and background goroutines.
type Executor interface {
	// Go runs fn off the loop goroutine.
	Go(fn func())
	// Post queues fn on the loop goroutine.
	Post(fn func())
}

type loopTask struct {
	stopped atomic.Bool
	once    sync.Once
	stopCh  chan struct{}
	onStop  func()
}

func newLoopTask() *loopTask {
	return &loopTask{stopCh: make(chan struct{})}
}

func (t *loopTask) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		close(t.stopCh)
		if t.onStop != nil {
			t.onStop()
		}
	})
}

// guard drops fn if the task was stopped after the tick was queued but before it ran.
func (t *loopTask) guard(fn func()) func() {
	return func() {
		if t.stopped.Load() {
			return
		}
		fn()
	}
}

// LoopScheduler schedules callbacks onto a Loop with real timers.
type LoopScheduler struct {
	loop *Loop
}

func NewLoopScheduler(loop *Loop) *LoopScheduler {
	return &LoopScheduler{loop: loop}
}

func (s *LoopScheduler) Every(d time.Duration, fn func()) Task {
	t := newLoopTask()
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.loop.Post(t.guard(fn))
			case <-t.stopCh:
				return
			case <-s.loop.Done():
				return
			}
		}
	}()
	return t
}

func (s *LoopScheduler) After(d time.Duration, fn func()) Task {
	t := newLoopTask()
	timer := time.AfterFunc(d, func() {
		s.loop.Post(t.guard(fn))
	})
	t.onStop = func() { timer.Stop() }
	return t
}
