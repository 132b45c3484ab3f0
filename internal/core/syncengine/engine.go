// Package syncengine owns the in-memory working copy of every customer and
// writes changes behind it to the remote store.
//
// Mutations update the cache synchronously and schedule a debounced remote
// write; bursts for the same customer coalesce into one cumulative write.
// Hydration applies remote state to the cache without scheduling a write,
// which keeps load/save cycles from echoing back to the store.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/spincycle/backend/internal/clock"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
)

var (
	ErrClosed    = errors.New("syncengine: closed")
	ErrInvalidID = errors.New("syncengine: empty customer id")
	ErrNotFound  = errors.New("syncengine: customer not found")
	ErrDeleted   = errors.New("syncengine: customer deleted before write")
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultMaxAttempts  = 10
)

type Config struct {
	Remote ports.CustomerRemote
	// Outbox receives failed remote operations. Nil means failures are
	// only logged.
	Outbox          ports.Outbox
	Clock           clock.Clock
	Logger          *logger.Logger
	DefaultDebounce time.Duration
	WriteTimeout    time.Duration
	// MaxAttempts bounds how often a failed write is retried from the outbox.
	MaxAttempts int
	NewID       func() string
}

type Engine struct {
	remote       ports.CustomerRemote
	outbox       ports.Outbox
	clock        clock.Clock
	log          *logger.Logger
	debounce     time.Duration
	writeTimeout time.Duration
	maxAttempts  int
	newID        func() string

	mu      sync.Mutex
	cache   map[string]*domain.Customer
	pending map[string]*pendingWrite
	writers map[string]*entityWriter
	// unreplayed holds, per customer, edits whose write failed and sits in
	// the outbox. queued maps those outbox entry ids to their customer.
	unreplayed map[string]domain.CustomerPatch
	queued     map[string]string
	gen        uint64
	inflight   int
	idle       chan struct{}
	closed     bool

	listenersMu  sync.RWMutex
	listeners    map[int]Listener
	nextListener int

	writesOK     atomic.Int64
	writesFailed atomic.Int64
	coalesced    atomic.Int64
}

func New(cfg Config) (*Engine, error) {
	if cfg.Remote == nil {
		return nil, fmt.Errorf("syncengine: remote is required")
	}
	e := &Engine{
		remote:       cfg.Remote,
		outbox:       cfg.Outbox,
		clock:        cfg.Clock,
		log:          cfg.Logger,
		debounce:     cfg.DefaultDebounce,
		writeTimeout: cfg.WriteTimeout,
		maxAttempts:  cfg.MaxAttempts,
		newID:        cfg.NewID,
		cache:        make(map[string]*domain.Customer),
		pending:      make(map[string]*pendingWrite),
		writers:      make(map[string]*entityWriter),
		unreplayed:   make(map[string]domain.CustomerPatch),
		queued:       make(map[string]string),
		listeners:    make(map[int]Listener),
	}
	if e.clock == nil {
		e.clock = clock.Real()
	}
	if e.log == nil {
		e.log = logger.NewNop()
	}
	if e.writeTimeout <= 0 {
		e.writeTimeout = defaultWriteTimeout
	}
	if e.maxAttempts <= 0 {
		e.maxAttempts = defaultMaxAttempts
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e, nil
}

// DefaultDebounce is the debounce configured for this engine.
func (e *Engine) DefaultDebounce() time.Duration { return e.debounce }

func (e *Engine) Now() time.Time { return e.clock.Now() }

// Mutate merges patch into the cached customer, stamps UpdatedAt and
// schedules a remote write after debounce. A zero debounce starts the write
// immediately. An unknown id gets a minimal record so a mutation that races
// ahead of its hydrate is not lost. The returned snapshot is the cache state
// after the merge; the remote write has not necessarily happened yet.
func (e *Engine) Mutate(id string, patch domain.CustomerPatch, debounce time.Duration) (*domain.Customer, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	now := e.clock.Now()
	patch = patch.Clone()
	patch.UpdatedAt = &now

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	c := e.applyLocked(id, patch, now)
	snapshot := c.Clone()
	e.scheduleLocked(id, patch, debounce)
	e.mu.Unlock()

	e.notify(Event{Kind: EventMutated, ID: id, Customer: snapshot.Clone(), At: now})
	return snapshot, nil
}

// MutateAndWait is Mutate with zero debounce that also waits for the remote
// write carrying this patch and returns its error. The cache is updated even
// when the write fails.
func (e *Engine) MutateAndWait(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	now := e.clock.Now()
	patch = patch.Clone()
	patch.UpdatedAt = &now
	done := make(chan error, 1)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	c := e.applyLocked(id, patch, now)
	snapshot := c.Clone()
	if pw := e.takePendingLocked(id); pw != nil {
		patch = pw.patch.Merge(patch)
		e.coalesced.Add(1)
	}
	e.dispatchLocked(id, writeJob{patch: patch, waiters: []chan error{done}}, true)
	e.mu.Unlock()

	e.notify(Event{Kind: EventMutated, ID: id, Customer: snapshot.Clone(), At: now})

	select {
	case err := <-done:
		return snapshot, err
	case <-ctx.Done():
		return snapshot, ctx.Err()
	}
}

// Hydrate merges remote data into the cache without scheduling a write.
// Local edits that have not reached the remote yet are reapplied on top so a
// stale read cannot roll them back.
func (e *Engine) Hydrate(id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	e.mu.Lock()
	c := e.applyLocked(id, patch, e.clock.Now())
	e.reapplyUnsentLocked(id, c)
	snapshot := c.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: EventHydrated, ID: id, Customer: snapshot.Clone(), At: e.clock.Now()})
	return snapshot, nil
}

// HydrateRecord replaces the cached copy with a full remote record, again
// without scheduling a write.
func (e *Engine) HydrateRecord(record *domain.Customer) (*domain.Customer, error) {
	if record == nil || record.ID == "" {
		return nil, ErrInvalidID
	}
	e.mu.Lock()
	c := record.Clone()
	e.cache[c.ID] = c
	e.reapplyUnsentLocked(c.ID, c)
	snapshot := c.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: EventHydrated, ID: snapshot.ID, Customer: snapshot.Clone(), At: e.clock.Now()})
	return snapshot, nil
}

// Load reads one customer from the remote and hydrates it.
func (e *Engine) Load(ctx context.Context, id string) (*domain.Customer, error) {
	record, err := e.remote.Read(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrRemoteNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return e.HydrateRecord(record)
}

// LoadAll hydrates every remote customer and returns how many were loaded.
func (e *Engine) LoadAll(ctx context.Context) (int, error) {
	records, err := e.remote.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	for i := range records {
		if _, err := e.HydrateRecord(&records[i]); err != nil {
			e.log.Warnw("customer_hydrate_skipped", "error", err)
		}
	}
	e.log.Infow("customers_hydrated", "count", len(records))
	return len(records), nil
}

// Get returns a copy of the cached customer.
func (e *Engine) Get(id string) (*domain.Customer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.cache[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// List returns copies of every cached customer, oldest first.
func (e *Engine) List() []*domain.Customer {
	e.mu.Lock()
	out := make([]*domain.Customer, 0, len(e.cache))
	for _, c := range e.cache {
		out = append(out, c.Clone())
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (e *Engine) applyLocked(id string, patch domain.CustomerPatch, now time.Time) *domain.Customer {
	c, ok := e.cache[id]
	if !ok {
		c = &domain.Customer{
			ID:            id,
			CreatedAt:     now,
			UpdatedAt:     now,
			Status:        domain.CustomerStatusOnboarding,
			PaymentStatus: domain.PaymentStatusUnpaid,
		}
		e.cache[id] = c
		e.log.Debugw("customer_cache_created", "id", id)
	}
	patch.ApplyTo(c)
	return c
}

// reapplyUnsentLocked puts local edits the remote may not have yet back on
// top of c, oldest first: failed writes waiting in the outbox, the write in
// flight, the write queued behind it, then the debounced write.
func (e *Engine) reapplyUnsentLocked(id string, c *domain.Customer) {
	if p, ok := e.unreplayed[id]; ok {
		p.ApplyTo(c)
	}
	if w, ok := e.writers[id]; ok {
		if w.current != nil {
			w.current.ApplyTo(c)
		}
		if w.next != nil {
			w.next.patch.ApplyTo(c)
		}
	}
	if pw, ok := e.pending[id]; ok {
		pw.patch.ApplyTo(c)
	}
}

// Stats is a point-in-time view of engine state.
type Stats struct {
	Cached       int   `json:"cached"`
	Pending      int   `json:"pending"`
	InFlight     int   `json:"in_flight"`
	WritesOK     int64 `json:"writes_ok"`
	WritesFailed int64 `json:"writes_failed"`
	Coalesced    int64 `json:"coalesced"`
	OutboxDepth  int   `json:"outbox_depth"`
	Closed       bool  `json:"closed"`
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	s := Stats{
		Cached:   len(e.cache),
		Pending:  len(e.pending),
		InFlight: e.inflight,
		Closed:   e.closed,
	}
	e.mu.Unlock()
	s.WritesOK = e.writesOK.Load()
	s.WritesFailed = e.writesFailed.Load()
	s.Coalesced = e.coalesced.Load()
	if e.outbox != nil {
		s.OutboxDepth = e.outbox.Depth()
	}
	return s
}
