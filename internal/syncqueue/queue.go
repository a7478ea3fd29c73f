// Package syncqueue replicates locally-durable session records to a remote
// endpoint, best effort, in submission order. Delivery is at-least-once: the
// remote push MUST be idempotent per session id. The queue only guarantees
// eventual delivery while the process lives; unsent records are picked up
// again by DrainUnsynced on the next start.
package syncqueue

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/repository"
)

// PushFunc sends one session record to the remote sync endpoint. Repeated
// calls with the same session id must be safe; this is a contract on the
// endpoint, not something the queue can solve.
type PushFunc func(ctx context.Context, snap models.ExamSnapshot) error

// Task is a unit of work executed by the queue in FIFO order.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue is a single-worker FIFO retry queue. One worker keeps submission
// order: a session's later state always reaches the remote after its earlier
// state, never the reverse.
type Queue struct {
	tasks    chan Task
	sessions repository.SessionRepository
	push     PushFunc
	attempts uint
	baseWait time.Duration
	log      *logger.Logger

	mu       sync.Mutex
	inflight map[string]bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Queue.
type Option func(*Queue)

// WithAttempts bounds the retries per task.
func WithAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.attempts = uint(n)
		}
	}
}

// WithBaseDelay sets the first backoff delay. Tests shrink it.
func WithBaseDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.baseWait = d
		}
	}
}

// New creates a Queue pushing through push and marking synced rows via
// sessions.
func New(sessions repository.SessionRepository, push PushFunc, queueSize int, opts ...Option) *Queue {
	if queueSize <= 0 {
		queueSize = 64
	}
	q := &Queue{
		tasks:    make(chan Task, queueSize),
		sessions: sessions,
		push:     push,
		attempts: 5,
		baseWait: time.Second,
		log:      logger.Default().WithPrefix("syncqueue"),
		inflight: map[string]bool{},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the worker goroutine.
func (q *Queue) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.wg.Add(1)

	go func() {
		defer q.wg.Done()
		q.log.Debug("sync worker started")
		for {
			select {
			case <-ctx.Done():
				return
			case task, ok := <-q.tasks:
				if !ok {
					return
				}
				q.run(ctx, task)
			}
		}
	}()
}

// Stop cancels the worker and waits for the in-flight task to finish.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	close(q.tasks)
	q.wg.Wait()
	q.log.Debug("sync worker stopped")
}

// Enqueue submits a task and reports whether it was accepted. A full queue
// drops the task with a warning rather than blocking or throwing back into
// the caller.
func (q *Queue) Enqueue(task Task) bool {
	select {
	case q.tasks <- task:
		q.log.Debug("task enqueued: %s", task.Name)
		return true
	default:
		q.log.Warn("sync queue full, dropping task: %s", task.Name)
		return false
	}
}

// EnqueueSnapshot submits a push for one session record. On success the
// record is marked synced in the store, the single side effect that marks
// durability-with-replication.
func (q *Queue) EnqueueSnapshot(snap models.ExamSnapshot) {
	sessionID := snap.SessionID
	q.mu.Lock()
	if q.inflight[sessionID] {
		q.mu.Unlock()
		q.log.Debug("push already in flight: session_id=%s", sessionID)
		return
	}
	q.inflight[sessionID] = true
	q.mu.Unlock()

	accepted := q.Enqueue(Task{
		Name: "push:" + sessionID,
		Run: func(ctx context.Context) error {
			defer func() {
				q.mu.Lock()
				delete(q.inflight, sessionID)
				q.mu.Unlock()
			}()
			if err := q.push(ctx, snap); err != nil {
				return errors.NewSyncFailedError(sessionID, err)
			}
			return q.sessions.MarkSynced(ctx, sessionID)
		},
	})
	if !accepted {
		q.mu.Lock()
		delete(q.inflight, sessionID)
		q.mu.Unlock()
	}
}

// DrainUnsynced scans the store for records not yet replicated and enqueues
// a push for each. It runs once per app start and whenever connectivity is
// restored, so a session abandoned mid-sync is retried without user action.
// It returns the number of records enqueued.
func (q *Queue) DrainUnsynced(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("syncqueue")

	snaps, err := q.sessions.Unsynced(ctx)
	if err != nil {
		return 0, err
	}
	enqueued := 0
	for _, snap := range snaps {
		q.mu.Lock()
		busy := q.inflight[snap.SessionID]
		q.mu.Unlock()
		if busy {
			continue
		}
		q.EnqueueSnapshot(snap)
		enqueued++
	}
	log.Info("drain: %d unsynced records enqueued", enqueued)
	return enqueued, nil
}

// run executes one task with bounded exponential backoff. A task that still
// fails after the last attempt is dropped and logged; the failure never
// reaches the submitter.
func (q *Queue) run(ctx context.Context, task Task) {
	err := retry.Do(
		func() error { return task.Run(ctx) },
		retry.Context(ctx),
		retry.Attempts(q.attempts),
		retry.Delay(q.baseWait),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		q.log.Warn("task dropped after %d attempts: %s: %v", q.attempts, task.Name, err)
		return
	}
	q.log.Debug("task completed: %s", task.Name)
}
