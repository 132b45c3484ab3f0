package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/spincycle/backend/internal/core/ports"
)

const (
	defaultCapacity     = 1024
	defaultPollInterval = 10 * time.Millisecond
)

type memoryQueue struct {
	capacity     int
	pollInterval time.Duration
	mu           sync.Mutex
	items        []ports.OutboxEntry
}

func NewMemoryQueue(capacity int) ports.Outbox {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &memoryQueue{
		capacity:     capacity,
		pollInterval: defaultPollInterval,
		items:        []ports.OutboxEntry{},
	}
}

func (q *memoryQueue) TryEnqueue(entry ports.OutboxEntry) bool {
	if !validEntry(entry) {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, entry)
	return true
}

func (q *memoryQueue) TryDequeue() (ports.OutboxEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return ports.OutboxEntry{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

func (q *memoryQueue) Dequeue(ctx context.Context) (ports.OutboxEntry, bool) {
	return pollDequeue(ctx, q.pollInterval, q.TryDequeue)
}

func (q *memoryQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *memoryQueue) Close() error {
	return nil
}

func validEntry(entry ports.OutboxEntry) bool {
	if entry.ID == "" || entry.CustomerID == "" {
		return false
	}
	return entry.Op == ports.OutboxOpWrite && entry.Patch != nil
}

func pollDequeue(ctx context.Context, interval time.Duration, try func() (ports.OutboxEntry, bool)) (ports.OutboxEntry, bool) {
	for {
		if entry, ok := try(); ok {
			return entry, true
		}
		select {
		case <-ctx.Done():
			return ports.OutboxEntry{}, false
		case <-time.After(interval):
		}
	}
}
