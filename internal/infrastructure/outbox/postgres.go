package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/spincycle/backend/internal/core/ports"
)

const (
	postgresTableName        = "sync_outbox"
	postgresOperationTimeout = 5 * time.Second
)

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// postgresQueue stores entries as JSON rows. The table is created on first
// use, so a missing database only fails the operations that touch it.
type postgresQueue struct {
	dsn          string
	tableName    string
	capacity     int
	pollInterval time.Duration
	openDB       sqlOpenFunc

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func NewPostgresQueue(dsn string, capacity int) (ports.Outbox, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrInvalidDSN
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &postgresQueue{
		dsn:          dsn,
		tableName:    postgresTableName,
		capacity:     capacity,
		pollInterval: defaultPollInterval,
		openDB:       sql.Open,
	}, nil
}

func (q *postgresQueue) ensureReady() error {
	q.initOnce.Do(func() {
		db, err := q.openDB("postgres", q.dsn)
		if err != nil {
			q.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
		defer cancel()

		createTable := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				entry_id TEXT NOT NULL UNIQUE,
				customer_id TEXT NOT NULL,
				payload TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, quoteIdentifier(q.tableName))
		if _, err := db.ExecContext(ctx, createTable); err != nil {
			_ = db.Close()
			q.initErr = err
			return
		}
		createIndex := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (customer_id)",
			quoteIdentifier(q.tableName+"_customer_id_idx"), quoteIdentifier(q.tableName))
		if _, err := db.ExecContext(ctx, createIndex); err != nil {
			_ = db.Close()
			q.initErr = err
			return
		}
		q.db = db
	})
	return q.initErr
}

func (q *postgresQueue) TryEnqueue(entry ports.OutboxEntry) bool {
	if !validEntry(entry) {
		return false
	}
	if err := q.ensureReady(); err != nil {
		return false
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
	defer cancel()

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return false
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// serialize capacity checks across processes sharing the table
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey(q.tableName)); err != nil {
		return false
	}
	var depth int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentifier(q.tableName))).Scan(&depth); err != nil {
		return false
	}
	if depth >= q.capacity {
		return false
	}
	insert := fmt.Sprintf("INSERT INTO %s (entry_id, customer_id, payload) VALUES ($1, $2, $3)", quoteIdentifier(q.tableName))
	if _, err := tx.ExecContext(ctx, insert, entry.ID, entry.CustomerID, string(payload)); err != nil {
		return false
	}
	if err := tx.Commit(); err != nil {
		return false
	}
	committed = true
	return true
}

func (q *postgresQueue) TryDequeue() (ports.OutboxEntry, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
	defer cancel()
	return q.tryDequeue(ctx)
}

func (q *postgresQueue) tryDequeue(ctx context.Context) (ports.OutboxEntry, bool) {
	if err := q.ensureReady(); err != nil {
		return ports.OutboxEntry{}, false
	}
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return ports.OutboxEntry{}, false
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`
		SELECT id, payload
		FROM %s
		ORDER BY id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, quoteIdentifier(q.tableName))
	var id int64
	var payload string
	err = tx.QueryRowContext(ctx, query).Scan(&id, &payload)
	if err != nil {
		return ports.OutboxEntry{}, false
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", quoteIdentifier(q.tableName)), id); err != nil {
		return ports.OutboxEntry{}, false
	}
	if err := tx.Commit(); err != nil {
		return ports.OutboxEntry{}, false
	}
	committed = true

	var entry ports.OutboxEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return ports.OutboxEntry{}, false
	}
	return entry, true
}

func (q *postgresQueue) Dequeue(ctx context.Context) (ports.OutboxEntry, bool) {
	return pollDequeue(ctx, q.pollInterval, func() (ports.OutboxEntry, bool) {
		return q.tryDequeue(ctx)
	})
}

func (q *postgresQueue) Depth() int {
	if err := q.ensureReady(); err != nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
	defer cancel()

	var depth int
	if err := q.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentifier(q.tableName))).Scan(&depth); err != nil {
		return 0
	}
	return depth
}

func (q *postgresQueue) Close() error {
	if q.db == nil {
		return nil
	}
	return q.db.Close()
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func lockKey(tableName string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tableName))
	return int64(h.Sum64())
}
