package ports

import (
	"context"
	"errors"
	"time"

	"github.com/spincycle/backend/internal/domain"
)

var ErrRemoteNotFound = errors.New("remote: not found")

// CustomerRemote is the durable store behind the sync engine cache. Read
// returns ErrRemoteNotFound for unknown ids.
type CustomerRemote interface {
	Read(ctx context.Context, id string) (*domain.Customer, error)
	ReadAll(ctx context.Context) ([]domain.Customer, error)
	Write(ctx context.Context, id string, patch domain.CustomerPatch) error
	Delete(ctx context.Context, id string) error
}

type OutboxOp string

const OutboxOpWrite OutboxOp = "write"

// OutboxEntry is a remote operation that failed and waits for replay.
type OutboxEntry struct {
	ID         string                `json:"id"`
	Op         OutboxOp              `json:"op"`
	CustomerID string                `json:"customer_id"`
	Patch      *domain.CustomerPatch `json:"patch,omitempty"`
	Attempts   int                   `json:"attempts"`
	LastError  string                `json:"last_error,omitempty"`
	EnqueuedAt time.Time             `json:"enqueued_at"`
}

// Outbox is a bounded FIFO of failed remote operations.
type Outbox interface {
	TryEnqueue(entry OutboxEntry) bool
	// Dequeue blocks until an entry is available or ctx is done.
	Dequeue(ctx context.Context) (OutboxEntry, bool)
	TryDequeue() (OutboxEntry, bool)
	Depth() int
	Close() error
}
