package ports

import (
	"context"
	"time"

	"github.com/spincycle/backend/internal/domain"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetAll(ctx context.Context) ([]domain.Customer, error)
	// Patch writes only the fields set in patch, creating the row if missing.
	Patch(ctx context.Context, id string, patch domain.CustomerPatch) error
	Delete(ctx context.Context, id string) error
}

type TimelineRepository interface {
	Create(ctx context.Context, event *domain.TimelineEvent) error
	GetByID(ctx context.Context, id uint) (*domain.TimelineEvent, error)
	GetByResource(ctx context.Context, resourceType string, resourceID string, limit int) ([]domain.TimelineEvent, error)
	GetAll(ctx context.Context, limit int) ([]domain.TimelineEvent, error)
	Update(ctx context.Context, event *domain.TimelineEvent) error
	CleanupOld(ctx context.Context, olderThan time.Duration) (int64, error)
}
