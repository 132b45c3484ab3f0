package syncengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
)

// Delete removes the customer from the remote store and then from the cache.
// Any debounced or queued write is cancelled first and an in-flight write is
// allowed to finish so it cannot recreate the row. If the remote delete fails
// the cache keeps the record, the cancelled write is started again and the
// error is returned.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	_, cached := e.cache[id]
	var cancelled *writeJob
	if w, ok := e.writers[id]; ok && w.next != nil {
		cancelled = w.next
		w.next = nil
	}
	if pw := e.takePendingLocked(id); pw != nil {
		job := writeJob{patch: pw.patch}
		if cancelled != nil {
			job = cancelled.merge(job)
		}
		cancelled = &job
	}
	e.mu.Unlock()

	if err := e.waitEntityIdle(ctx, id); err != nil {
		e.restart(id, cancelled)
		return err
	}

	err := e.remote.Delete(ctx, id)
	switch {
	case errors.Is(err, ports.ErrRemoteNotFound):
		if !cached {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	case err != nil:
		e.log.Errorw("customer_delete_failed", "id", id, "error", err)
		e.restart(id, cancelled)
		return err
	}

	e.mu.Lock()
	delete(e.cache, id)
	delete(e.unreplayed, id)
	e.mu.Unlock()

	if cancelled != nil {
		for _, ch := range cancelled.waiters {
			ch <- ErrDeleted
		}
	}
	e.log.Infow("customer_deleted", "id", id)
	e.notify(Event{Kind: EventDeleted, ID: id, At: e.clock.Now()})
	return nil
}

// restart puts back a write cancelled by a failed delete. Waiters get it
// started at once; otherwise it goes back behind the default debounce.
func (e *Engine) restart(id string, job *writeJob) {
	if job == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(job.waiters) > 0 {
		e.dispatchLocked(id, *job, true)
		return
	}
	e.scheduleLocked(id, job.patch, e.debounce)
}

// Flush starts every pending write now and waits until no write is running.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	e.flushLocked()
	e.mu.Unlock()
	return e.waitIdle(ctx)
}

func (e *Engine) flushLocked() {
	for id := range e.pending {
		pw := e.takePendingLocked(id)
		e.dispatchLocked(id, writeJob{patch: pw.patch}, true)
	}
}

// Close flushes pending writes, waits for them and rejects further
// mutations. Reads and hydration keep working.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	pending := len(e.pending)
	e.flushLocked()
	e.mu.Unlock()

	e.log.Infow("sync_engine_closing", "pending", pending)
	if err := e.waitIdle(ctx); err != nil {
		e.log.Errorw("sync_engine_close_timeout", "error", err)
		return err
	}
	return nil
}

type ReplayResult struct {
	Replayed int `json:"replayed"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// ReplayOutbox retries every entry queued at the time of the call. An entry
// this engine queued is retried by writing the customer's whole cached
// record, since the cache already holds the failed edit and anything newer.
// An entry left by an earlier process is applied to the cache first, under
// any unsent local edits, then written the same way. Writes for customers no
// longer cached are skipped. Entries that fail again go back on the queue
// with their attempt count raised.
func (e *Engine) ReplayOutbox(ctx context.Context) (ReplayResult, error) {
	var res ReplayResult
	if e.outbox == nil {
		return res, nil
	}
	n := e.outbox.Depth()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		entry, ok := e.outbox.TryDequeue()
		if !ok {
			break
		}
		e.mu.Lock()
		_, own := e.queued[entry.ID]
		delete(e.queued, entry.ID)
		e.mu.Unlock()

		if entry.Op != ports.OutboxOpWrite {
			res.Skipped++
			continue
		}
		skipped, err := e.replayWrite(ctx, entry, own)
		switch {
		case skipped:
			res.Skipped++
		case err != nil:
			res.Failed++
		default:
			res.Replayed++
		}
	}
	if res.Replayed+res.Failed+res.Skipped > 0 {
		e.log.Infow("outbox_replayed", "replayed", res.Replayed, "failed", res.Failed, "skipped", res.Skipped)
	}
	return res, nil
}

func (e *Engine) replayWrite(ctx context.Context, entry ports.OutboxEntry, own bool) (bool, error) {
	done := make(chan error, 1)

	e.mu.Lock()
	c, ok := e.cache[entry.CustomerID]
	if !ok || (!own && entry.Patch == nil) {
		if !e.hasQueuedLocked(entry.CustomerID) {
			delete(e.unreplayed, entry.CustomerID)
		}
		e.mu.Unlock()
		return true, nil
	}
	var recovered *domain.Customer
	if !own {
		entry.Patch.ApplyTo(c)
		e.reapplyUnsentLocked(entry.CustomerID, c)
		e.unreplayed[entry.CustomerID] = entry.Patch.Merge(e.unreplayed[entry.CustomerID])
		recovered = c.Clone()
	}
	patch := domain.PatchFromCustomer(c)
	if pw := e.takePendingLocked(entry.CustomerID); pw != nil {
		patch = patch.Merge(pw.patch)
	}
	e.dispatchLocked(entry.CustomerID, writeJob{patch: patch, attempts: entry.Attempts, full: true, waiters: []chan error{done}}, true)
	e.mu.Unlock()

	if recovered != nil {
		e.notify(Event{Kind: EventMutated, ID: recovered.ID, Customer: recovered, At: e.clock.Now()})
	}

	select {
	case err := <-done:
		return false, err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
