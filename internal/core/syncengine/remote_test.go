package syncengine

import (
	"context"
	"errors"
	"sync"

	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
)

// fakeRemote is an in-memory CustomerRemote that records every call.
type fakeRemote struct {
	mu       sync.Mutex
	records  map[string]*domain.Customer
	writes   []write
	deletes  []string
	failNext int
	failAll  error
	gate     chan struct{}
}

type write struct {
	id    string
	patch domain.CustomerPatch
}

var errRemoteDown = errors.New("remote down")

func newFakeRemote() *fakeRemote {
	return &fakeRemote{records: make(map[string]*domain.Customer)}
}

func (r *fakeRemote) Read(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[id]
	if !ok {
		return nil, ports.ErrRemoteNotFound
	}
	return c.Clone(), nil
}

func (r *fakeRemote) ReadAll(context.Context) ([]domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Customer, 0, len(r.records))
	for _, c := range r.records {
		out = append(out, *c.Clone())
	}
	return out, nil
}

func (r *fakeRemote) Write(ctx context.Context, id string, patch domain.CustomerPatch) error {
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, write{id: id, patch: patch})
	if r.failAll != nil {
		return r.failAll
	}
	if r.failNext > 0 {
		r.failNext--
		return errRemoteDown
	}
	c, ok := r.records[id]
	if !ok {
		c = &domain.Customer{ID: id}
		r.records[id] = c
	}
	patch.ApplyTo(c)
	return nil
}

func (r *fakeRemote) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, id)
	if r.failAll != nil {
		return r.failAll
	}
	if _, ok := r.records[id]; !ok {
		return ports.ErrRemoteNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *fakeRemote) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

func (r *fakeRemote) lastWrite() write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes[len(r.writes)-1]
}

func (r *fakeRemote) record(id string) *domain.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.records[id]; ok {
		return c.Clone()
	}
	return nil
}

func (r *fakeRemote) put(c *domain.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[c.ID] = c.Clone()
}

func (r *fakeRemote) setFailAll(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAll = err
}
