package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

// TimelineRepoStub keeps events in memory. It backs tests and the offline
// CLI where no database is configured.
type TimelineRepoStub struct {
	logger *logger.Logger

	mu     sync.Mutex
	nextID uint
	events []domain.TimelineEvent
}

func NewTimelineRepoStub(log *logger.Logger) *TimelineRepoStub {
	return &TimelineRepoStub{logger: log}
}

var _ ports.TimelineRepository = (*TimelineRepoStub)(nil)

func (r *TimelineRepoStub) Create(ctx context.Context, event *domain.TimelineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = r.nextID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	event.UpdatedAt = event.CreatedAt
	r.events = append(r.events, *event)
	r.logger.Debugw("timeline event",
		"type", event.Type,
		"status", event.Status,
		"resource_type", event.ResourceType,
		"resource_id", event.ResourceID,
	)
	return nil
}

func (r *TimelineRepoStub) GetByID(ctx context.Context, id uint) (*domain.TimelineEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *TimelineRepoStub) GetByResource(ctx context.Context, resourceType string, resourceID string, limit int) ([]domain.TimelineEvent, error) {
	return r.newest(limit, func(e domain.TimelineEvent) bool {
		return e.ResourceType == resourceType && e.ResourceID == resourceID
	}), nil
}

func (r *TimelineRepoStub) GetAll(ctx context.Context, limit int) ([]domain.TimelineEvent, error) {
	return r.newest(limit, func(domain.TimelineEvent) bool { return true }), nil
}

func (r *TimelineRepoStub) Update(ctx context.Context, event *domain.TimelineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == event.ID {
			event.UpdatedAt = time.Now()
			r.events[i] = *event
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *TimelineRepoStub) CleanupOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	kept := r.events[:0]
	var removed int64
	for _, e := range r.events {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return removed, nil
}

func (r *TimelineRepoStub) newest(limit int, match func(domain.TimelineEvent) bool) []domain.TimelineEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TimelineEvent
	for _, e := range r.events {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out
}
