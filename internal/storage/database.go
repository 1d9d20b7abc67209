// Package storage persists the offline write queue in a local SQLite
// database so queued write-intents survive process restarts.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Registers the sqlite driver

	"recallkit/internal/domain"
	"recallkit/internal/queue"
)

// DB wraps the SQL database connection. It implements queue.Store.
type DB struct {
	conn     *sql.DB
	listener queue.Listener
	now      func() time.Time
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db, now: time.Now}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SetListener registers l to be notified after appends and removals.
func (db *DB) SetListener(l queue.Listener) {
	db.listener = l
}

// SetClock overrides the timestamp source. Intended for tests.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

// Append implements queue.Store.
func (db *DB) Append(ctx context.Context, action queue.Action, payload domain.CardPayload) (queue.Item, error) {
	item := queue.Item{
		ID:        uuid.New(),
		Action:    action,
		Payload:   payload,
		CreatedAt: db.now(),
	}

	body, err := json.Marshal(item.Payload)
	if err != nil {
		return queue.Item{}, fmt.Errorf("failed to encode payload for item %s: %w", item.ID, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO queue_items (id, action, payload, created_at, retry_count)
		VALUES (?, ?, ?, ?, 0)
	`, item.ID.String(), string(item.Action), string(body), item.CreatedAt)
	if err != nil {
		return queue.Item{}, fmt.Errorf("failed to append queue item %s: %w", item.ID, err)
	}

	db.notify(ctx)
	return item, nil
}

// List implements queue.Store. Items come back in append order.
func (db *DB) List(ctx context.Context) ([]queue.Item, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, action, payload, created_at, retry_count
		FROM queue_items ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}
	defer rows.Close()

	items := make([]queue.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue items: %w", err)
	}
	return items, nil
}

// Remove implements queue.Store. Removing a missing id is a no-op.
func (db *DB) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM queue_items WHERE id = ?
	`, id.String())
	if err != nil {
		return fmt.Errorf("failed to remove queue item %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		db.notify(ctx)
	}
	return nil
}

// IncrementRetry implements queue.Store. A missing id is a no-op.
func (db *DB) IncrementRetry(ctx context.Context, id uuid.UUID) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE queue_items SET retry_count = retry_count + 1 WHERE id = ?
	`, id.String())
	if err != nil {
		return fmt.Errorf("failed to increment retry for queue item %s: %w", id, err)
	}
	return nil
}

// Len implements queue.Store.
func (db *DB) Len(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_items`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue items: %w", err)
	}
	return n, nil
}

// FailedWrite is a write-intent dropped after exhausting its retries.
type FailedWrite struct {
	Item     queue.Item
	FailedAt time.Time
	Reason   string
}

// RecordFailure moves a dropped item into the failed_writes log.
func (db *DB) RecordFailure(ctx context.Context, item queue.Item, reason string, at time.Time) error {
	body, err := json.Marshal(item.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for failed write %s: %w", item.ID, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO failed_writes (id, action, payload, created_at, retry_count, failed_at, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.ID.String(), string(item.Action), string(body), item.CreatedAt, item.RetryCount, at, reason)
	if err != nil {
		return fmt.Errorf("failed to record failed write %s: %w", item.ID, err)
	}
	return nil
}

// FailedWrites returns all permanently dropped write-intents, most
// recent first.
func (db *DB) FailedWrites(ctx context.Context) ([]FailedWrite, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, action, payload, created_at, retry_count, failed_at, reason
		FROM failed_writes ORDER BY failed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed writes: %w", err)
	}
	defer rows.Close()

	writes := make([]FailedWrite, 0)
	for rows.Next() {
		var (
			fw      FailedWrite
			rawID   string
			action  string
			rawBody string
		)
		if err := rows.Scan(&rawID, &action, &rawBody, &fw.Item.CreatedAt, &fw.Item.RetryCount, &fw.FailedAt, &fw.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan failed write row: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse failed write id %q: %w", rawID, err)
		}
		fw.Item.ID = id
		fw.Item.Action = queue.Action(action)
		if err := json.Unmarshal([]byte(rawBody), &fw.Item.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload for failed write %s: %w", id, err)
		}
		writes = append(writes, fw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate failed writes: %w", err)
	}
	return writes, nil
}

func (db *DB) notify(ctx context.Context) {
	if db.listener == nil {
		return
	}
	if n, err := db.Len(ctx); err == nil {
		db.listener.QueueChanged(n)
	}
}

func scanItem(rows *sql.Rows) (queue.Item, error) {
	var (
		item    queue.Item
		rawID   string
		action  string
		rawBody string
	)
	if err := rows.Scan(&rawID, &action, &rawBody, &item.CreatedAt, &item.RetryCount); err != nil {
		return queue.Item{}, fmt.Errorf("failed to scan queue item row: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return queue.Item{}, fmt.Errorf("failed to parse queue item id %q: %w", rawID, err)
	}
	item.ID = id
	item.Action = queue.Action(action)
	if err := json.Unmarshal([]byte(rawBody), &item.Payload); err != nil {
		return queue.Item{}, fmt.Errorf("failed to decode payload for queue item %s: %w", id, err)
	}
	return item, nil
}
