package syncengine

import (
	"context"
	"time"

	"github.com/spincycle/backend/internal/clock"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
)

// pendingWrite is a debounced write waiting for its timer. There is at most
// one per customer.
type pendingWrite struct {
	timer clock.Timer
	gen   uint64
	patch domain.CustomerPatch
}

type writeJob struct {
	patch    domain.CustomerPatch
	attempts int
	// full marks a patch carrying the whole cached record, so once it lands
	// every earlier failed edit for the customer is on the remote.
	full    bool
	waiters []chan error
}

func (j writeJob) merge(later writeJob) writeJob {
	return writeJob{
		patch:    j.patch.Merge(later.patch),
		attempts: max(j.attempts, later.attempts),
		full:     j.full || later.full,
		waiters:  append(append([]chan error(nil), j.waiters...), later.waiters...),
	}
}

// entityWriter runs remote writes for one customer one at a time, in order.
// Jobs that arrive while a write is in flight fold into next. current is the
// patch being written right now.
type entityWriter struct {
	running bool
	current *domain.CustomerPatch
	next    *writeJob
}

func (e *Engine) scheduleLocked(id string, patch domain.CustomerPatch, debounce time.Duration) {
	if pw := e.takePendingLocked(id); pw != nil {
		patch = pw.patch.Merge(patch)
		e.coalesced.Add(1)
	}
	if debounce <= 0 {
		e.dispatchLocked(id, writeJob{patch: patch}, true)
		return
	}
	e.gen++
	gen := e.gen
	pw := &pendingWrite{gen: gen, patch: patch}
	pw.timer = e.clock.AfterFunc(debounce, func() { e.fire(id, gen) })
	e.pending[id] = pw
}

// takePendingLocked cancels and removes the pending write for id. A timer
// that already fired but has not taken e.mu yet finds its generation gone
// and does nothing.
func (e *Engine) takePendingLocked(id string) *pendingWrite {
	pw, ok := e.pending[id]
	if !ok {
		return nil
	}
	pw.timer.Stop()
	delete(e.pending, id)
	return pw
}

func (e *Engine) fire(id string, gen uint64) {
	e.mu.Lock()
	pw, ok := e.pending[id]
	if !ok || pw.gen != gen {
		e.mu.Unlock()
		return
	}
	delete(e.pending, id)
	job := writeJob{patch: pw.patch}
	started := e.dispatchLocked(id, job, false)
	e.mu.Unlock()

	// timer callbacks already run off the caller's goroutine
	if started {
		e.runWrites(id, job)
	}
}

// dispatchLocked hands job to the customer's writer. If a write is already
// running the job is queued behind it and false is returned. Otherwise the
// writer is marked running; with async the write starts on a new goroutine,
// without it the caller must call runWrites itself.
func (e *Engine) dispatchLocked(id string, job writeJob, async bool) bool {
	w, ok := e.writers[id]
	if !ok {
		w = &entityWriter{}
		e.writers[id] = w
	}
	if w.running {
		if w.next == nil {
			w.next = &job
		} else {
			merged := w.next.merge(job)
			w.next = &merged
			e.coalesced.Add(1)
		}
		return false
	}
	w.running = true
	current := job.patch
	w.current = &current
	e.inflightAddLocked(1)
	if async {
		go e.runWrites(id, job)
	}
	return true
}

func (e *Engine) runWrites(id string, job writeJob) {
	for {
		err := e.writeRemote(id, job)
		queued := false
		if err != nil {
			failed := job.patch.Clone()
			entry := ports.OutboxEntry{
				Op:         ports.OutboxOpWrite,
				CustomerID: id,
				Patch:      &failed,
				Attempts:   job.attempts + 1,
				LastError:  err.Error(),
			}
			queued = e.enqueue(&entry)
		}

		e.mu.Lock()
		e.settleLocked(id, job, err, queued)
		w := e.writers[id]
		if w == nil || w.next == nil {
			delete(e.writers, id)
			e.inflightAddLocked(-1)
			e.mu.Unlock()
			notifyWaiters(job.waiters, err)
			return
		}
		done := job.waiters
		job = *w.next
		w.next = nil
		current := job.patch
		w.current = &current
		e.mu.Unlock()
		notifyWaiters(done, err)
	}
}

func notifyWaiters(waiters []chan error, err error) {
	for _, ch := range waiters {
		ch <- err
	}
}

// settleLocked records the outcome of a write. A failed write that reached
// the outbox stays in unreplayed so hydration keeps it in the cache until a
// full-record write lands.
func (e *Engine) settleLocked(id string, job writeJob, err error, queued bool) {
	if err == nil {
		p, ok := e.unreplayed[id]
		switch {
		case !ok:
		case job.full:
			delete(e.unreplayed, id)
		default:
			if p = p.Without(job.patch); p.IsEmpty() {
				delete(e.unreplayed, id)
			} else {
				e.unreplayed[id] = p
			}
		}
		return
	}
	if queued {
		e.unreplayed[id] = e.unreplayed[id].Merge(job.patch)
		return
	}
	if !e.hasQueuedLocked(id) {
		delete(e.unreplayed, id)
	}
}

func (e *Engine) hasQueuedLocked(id string) bool {
	for _, customerID := range e.queued {
		if customerID == id {
			return true
		}
	}
	return false
}

func (e *Engine) writeRemote(id string, job writeJob) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.writeTimeout)
	defer cancel()

	start := e.clock.Now()
	err := e.remote.Write(ctx, id, job.patch)
	if err != nil {
		e.writesFailed.Add(1)
		e.log.Errorw("customer_write_failed", "id", id, "attempt", job.attempts+1, "error", err)
		return err
	}
	e.writesOK.Add(1)
	e.log.Debugw("customer_write_ok", "id", id, "fields", len(job.patch.Columns()), "duration", e.clock.Now().Sub(start))
	return nil
}

// enqueue puts a failed write on the outbox and reports whether it was
// accepted. The entry id is registered before the push so a concurrent
// replay recognises it.
func (e *Engine) enqueue(entry *ports.OutboxEntry) bool {
	if e.outbox == nil {
		return false
	}
	if entry.Attempts >= e.maxAttempts {
		e.log.Errorw("outbox_entry_dropped", "id", entry.CustomerID, "op", entry.Op, "attempts", entry.Attempts, "error", entry.LastError)
		return false
	}
	e.mu.Lock()
	entry.ID = e.newID()
	e.queued[entry.ID] = entry.CustomerID
	e.mu.Unlock()
	entry.EnqueuedAt = e.clock.Now()
	if !e.outbox.TryEnqueue(*entry) {
		e.mu.Lock()
		delete(e.queued, entry.ID)
		e.mu.Unlock()
		e.log.Errorw("outbox_enqueue_failed", "id", entry.CustomerID, "op", entry.Op, "depth", e.outbox.Depth())
		return false
	}
	e.log.Warnw("outbox_enqueued", "id", entry.CustomerID, "op", entry.Op, "attempts", entry.Attempts)
	return true
}

func (e *Engine) inflightAddLocked(delta int) {
	if e.inflight == 0 && delta > 0 {
		e.idle = make(chan struct{})
	}
	e.inflight += delta
	if e.inflight == 0 && e.idle != nil {
		close(e.idle)
		e.idle = nil
	}
}

// waitIdle blocks until no remote write is running or ctx is done.
func (e *Engine) waitIdle(ctx context.Context) error {
	for {
		e.mu.Lock()
		if e.inflight == 0 {
			e.mu.Unlock()
			return nil
		}
		idle := e.idle
		e.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// waitEntityIdle blocks until no write is running for id.
func (e *Engine) waitEntityIdle(ctx context.Context, id string) error {
	for {
		e.mu.Lock()
		_, busy := e.writers[id]
		idle := e.idle
		e.mu.Unlock()
		if !busy {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}
