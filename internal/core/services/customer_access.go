package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/core/syncengine"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
)

// customerAccess is the read-modify-write path every service shares: look
// the customer up in the store, build a patch under the customer's lock and
// hand it to the store with the default debounce.
type customerAccess struct {
	store    ports.CustomerStore
	timeline ports.TimelineRepository
	logger   *logger.Logger
	locks    *KeyLocker
}

func newCustomerAccess(store ports.CustomerStore, timeline ports.TimelineRepository, log *logger.Logger, locks *KeyLocker) customerAccess {
	if log == nil {
		log = logger.NewNop()
	}
	if locks == nil {
		locks = NewKeyLocker()
	}
	return customerAccess{store: store, timeline: timeline, logger: log, locks: locks}
}

// lookup serves from the cache and falls back to a remote load.
func (a *customerAccess) lookup(ctx context.Context, id string) (*domain.Customer, error) {
	if id == "" {
		return nil, ErrCustomerNotFound
	}
	if c, ok := a.store.Get(id); ok {
		return c, nil
	}
	c, err := a.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, syncengine.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
		}
		return nil, err
	}
	return c, nil
}

type patchFunc func(c *domain.Customer) (domain.CustomerPatch, error)

func (a *customerAccess) update(ctx context.Context, id string, fn patchFunc) (*domain.Customer, error) {
	unlock := a.locks.Lock(customerKey(id))
	defer unlock()

	c, err := a.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	patch, err := fn(c)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return c, nil
	}
	updated, err := a.store.Mutate(id, patch, a.store.DefaultDebounce())
	if err != nil {
		a.logger.Errorw("customer_mutate_failed", "id", id, "error", err)
		return nil, err
	}
	return updated, nil
}

func (a *customerAccess) record(ctx context.Context, id, eventType, message string, meta domain.JSONB) {
	if a.timeline == nil {
		return
	}
	event := &domain.TimelineEvent{
		Type:         eventType,
		Status:       domain.EventStatusSuccess,
		Message:      message,
		Meta:         meta,
		ResourceID:   id,
		ResourceType: domain.ResourceTypeCustomer,
	}
	if err := a.timeline.Create(ctx, event); err != nil {
		a.logger.Warnw("timeline_record_failed", "id", id, "type", eventType, "error", err)
	}
}
