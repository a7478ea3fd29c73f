// Package autosave snapshots live session state into the local store on a
// timer and on demand, so an in-progress session survives restart or crash.
package autosave

import (
	"bytes"
	"context"
	"sync"
	"time"

	"studycore/internal/logger"
)

// Status is the observability-only save state machine:
// idle -> saving -> saved -> idle (auto-revert), or idle -> saving -> error.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// SnapshotFunc returns the current serialized session state. A nil payload
// means there is nothing to snapshot yet (static content still loading) and
// the tick is skipped.
type SnapshotFunc func() ([]byte, error)

// PersistFunc writes a serialized snapshot to the store. It must be
// idempotent: the engine tolerates overlapping saves by re-putting rather
// than locking.
type PersistFunc func(ctx context.Context, payload []byte) error

// Engine drives periodic and on-demand saves for one session.
type Engine struct {
	sessionID string
	interval  time.Duration
	savedHold time.Duration
	snapshot  SnapshotFunc
	persist   PersistFunc
	log       *logger.Logger

	mu          sync.Mutex
	lastPayload []byte
	status      Status
	enabled     bool
	started     bool
	stop        chan struct{}
	done        chan struct{}
}

// New creates an Engine for sessionID. Nothing runs until Start.
func New(sessionID string, interval time.Duration, snapshot SnapshotFunc, persist PersistFunc) *Engine {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Engine{
		sessionID: sessionID,
		interval:  interval,
		savedHold: 2 * time.Second,
		snapshot:  snapshot,
		persist:   persist,
		log:       logger.Default().WithPrefix("autosave").WithField("session_id", sessionID),
		status:    StatusIdle,
		enabled:   true,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the save timer. It may be called at most once.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started || !e.enabled {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	go func() {
		defer close(e.done)
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		e.log.Debug("autosave started, interval=%s", e.interval)

		for {
			select {
			case <-ctx.Done():
				return
			case <-e.stop:
				return
			case <-ticker.C:
				if err := e.save(ctx, false); err != nil {
					e.log.Warn("autosave tick failed: %v", err)
				}
			}
		}
	}()
}

// Flush performs one immediate best-effort save, regardless of the timer.
// This is the page-unload path.
func (e *Engine) Flush(ctx context.Context) error {
	return e.save(ctx, true)
}

// Stop disables the engine: no new ticks are scheduled. An in-flight save is
// allowed to complete. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.enabled {
		e.mu.Unlock()
		return
	}
	e.enabled = false
	started := e.started
	close(e.stop)
	e.mu.Unlock()

	if started {
		<-e.done
	}
	e.log.Debug("autosave stopped")
}

// Status returns the current save status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// save snapshots the session and persists it when the serialized form has
// changed since the last successful write. forced saves (Flush) still skip
// an unchanged payload: re-writing identical state is pointless either way.
func (e *Engine) save(ctx context.Context, forced bool) error {
	e.mu.Lock()
	if !e.enabled && !forced {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	payload, err := e.snapshot()
	if err != nil {
		e.setStatus(StatusError)
		return err
	}
	if payload == nil {
		return nil
	}

	e.mu.Lock()
	unchanged := bytes.Equal(payload, e.lastPayload)
	e.mu.Unlock()
	if unchanged {
		return nil
	}

	e.setStatus(StatusSaving)
	if err := e.persist(ctx, payload); err != nil {
		// Reported, never retried in a tight loop: the next tick is the
		// natural retry trigger.
		e.setStatus(StatusError)
		return err
	}

	e.mu.Lock()
	e.lastPayload = payload
	e.status = StatusSaved
	e.mu.Unlock()
	e.log.Debug("snapshot saved (%d bytes)", len(payload))

	time.AfterFunc(e.savedHold, func() {
		e.mu.Lock()
		if e.status == StatusSaved {
			e.status = StatusIdle
		}
		e.mu.Unlock()
	})
	return nil
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}
