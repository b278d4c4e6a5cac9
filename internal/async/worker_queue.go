package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/bookmap/internal/common"
)

// WorkerQueue runs jobs through a Handler on a single worker, in submission
// order. A path already waiting or running is not queued twice. Handlers may
// therefore drive state that is not safe for concurrent use.
type WorkerQueue struct {
	handle  Handler
	logger  *slog.Logger
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex // guards closed and sends on ch
	closed bool

	pendingMu sync.Mutex
	pending   map[string]struct{}
}

type Option func(*WorkerQueue)

func WithProcessTimeout(d time.Duration) Option {
	return func(q *WorkerQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewWorkerQueue starts the worker.
func NewWorkerQueue(handle Handler, logger *slog.Logger, opts ...Option) *WorkerQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WorkerQueue{
		handle:  handle,
		logger:  logger,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 64),
		pending: map[string]struct{}{},
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *WorkerQueue) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.logger.Debug("queue.worker.start")

			for job := range q.ch {
				q.run(job)
			}

			q.logger.Debug("queue.worker.stop")
		}()
	})
}

func (q *WorkerQueue) run(job Job) {
	defer q.release(job.Path)

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}

	start := time.Now()
	if err := q.handle(ctx, job); err != nil {
		q.logger.Error("queue.job.failed", "path", job.Path, "error", err)
		return
	}
	q.logger.Info("queue.job.ok",
		"path", job.Path,
		"waited_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// Enqueue adds job unless its path is already queued or running. It blocks while the queue is full.
func (q *WorkerQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "path", job.Path)
		return common.NewAppError("QUEUE_CLOSED", "queue is shutting down", common.ErrUnavailable)
	}
	if !q.claim(job.Path) {
		q.logger.Debug("queue.enqueue.duplicate", "path", job.Path)
		return nil
	}

	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueue.ok", "path", job.Path)
		return nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		q.release(job.Path)
		return ctx.Err()
	}
}

func (q *WorkerQueue) claim(path string) bool {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	if _, dup := q.pending[path]; dup {
		return false
	}
	q.pending[path] = struct{}{}
	return true
}

func (q *WorkerQueue) release(path string) {
	q.pendingMu.Lock()
	delete(q.pending, path)
	q.pendingMu.Unlock()
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
func (q *WorkerQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
