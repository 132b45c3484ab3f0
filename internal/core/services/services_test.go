package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/core/syncengine"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/db"
	"github.com/spincycle/backend/internal/infrastructure/logger"
	"github.com/spincycle/backend/internal/infrastructure/outbox"
	"github.com/spincycle/backend/internal/testutil"
)

var epoch = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

const debounce = 500 * time.Millisecond

var errRemoteDown = errors.New("remote down")

// memRemote is a map-backed remote store.
type memRemote struct {
	mu      sync.Mutex
	records map[string]*domain.Customer
	writes  int
	fail    bool
}

func newMemRemote() *memRemote {
	return &memRemote{records: map[string]*domain.Customer{}}
}

func (r *memRemote) Read(ctx context.Context, id string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[id]
	if !ok {
		return nil, ports.ErrRemoteNotFound
	}
	return c.Clone(), nil
}

func (r *memRemote) ReadAll(ctx context.Context) ([]domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Customer, 0, len(r.records))
	for _, c := range r.records {
		out = append(out, *c.Clone())
	}
	return out, nil
}

func (r *memRemote) Write(ctx context.Context, id string, patch domain.CustomerPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	r.writes++
	c, ok := r.records[id]
	if !ok {
		c = &domain.Customer{ID: id, Status: domain.CustomerStatusOnboarding, PaymentStatus: domain.PaymentStatusUnpaid}
		r.records[id] = c
	}
	patch.ApplyTo(c)
	return nil
}

func (r *memRemote) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemoteDown
	}
	if _, ok := r.records[id]; !ok {
		return ports.ErrRemoteNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *memRemote) get(id string) (*domain.Customer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

func (r *memRemote) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *memRemote) setFail(v bool) {
	r.mu.Lock()
	r.fail = v
	r.mu.Unlock()
}

type testEnv struct {
	engine    *syncengine.Engine
	remote    *memRemote
	clock     *testutil.FakeClock
	outbox    ports.Outbox
	timeline  *db.TimelineRepoStub
	customers ports.CustomerService
	ledger    ports.LedgerService
	equipment ports.EquipmentService
}

func sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()
	env := &testEnv{
		remote:   newMemRemote(),
		clock:    testutil.NewFakeClock(epoch),
		outbox:   outbox.NewMemoryQueue(16),
		timeline: db.NewTimelineRepoStub(log),
	}
	engine, err := syncengine.New(syncengine.Config{
		Remote:          env.remote,
		Outbox:          env.outbox,
		Clock:           env.clock,
		Logger:          log,
		DefaultDebounce: debounce,
		WriteTimeout:    time.Second,
		NewID:           sequence("entry"),
	})
	require.NoError(t, err)
	env.engine = engine

	locks := NewKeyLocker()
	env.customers = NewCustomerService(CustomerServiceConfig{
		Store:        engine,
		TimelineRepo: env.timeline,
		Catalog:      catalog.Default(),
		Logger:       log,
		Locks:        locks,
		NewID:        sequence("cust"),
	})
	env.ledger = NewLedgerService(LedgerServiceConfig{
		Store:        engine,
		TimelineRepo: env.timeline,
		Logger:       log,
		Locks:        locks,
		NewID:        sequence("rep"),
	})
	env.equipment = NewEquipmentService(EquipmentServiceConfig{
		Store:        engine,
		TimelineRepo: env.timeline,
		Logger:       log,
		Locks:        locks,
		NewID:        sequence("m"),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = engine.Close(ctx)
	})
	return env
}

func (e *testEnv) createCustomer(t *testing.T, name string) *domain.Customer {
	t.Helper()
	c, err := e.customers.CreateCustomer(context.Background(), ports.CreateCustomerInput{BusinessName: name})
	require.NoError(t, err)
	return c
}

func (e *testEnv) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.engine.Flush(ctx))
}

func (e *testEnv) eventTypes(t *testing.T, id string) []string {
	t.Helper()
	events, err := e.timeline.GetByResource(context.Background(), domain.ResourceTypeCustomer, id, 100)
	require.NoError(t, err)
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}
