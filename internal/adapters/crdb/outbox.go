package crdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	OutboxNew       = "NEW"
	OutboxPublished = "PUBLISHED"
	OutboxFailed    = "FAILED"
)

// MaxOutboxAttempts is how often a record is retried before it is parked as FAILED.
const MaxOutboxAttempts = 10

type OutboxRecord struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Status        string
	Attempts      int
	DedupeKey     string
}

func (r *Repository) InsertOutbox(ctx context.Context, tx pgx.Tx, record OutboxRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload_json, status, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, 'NEW', $6)
	`, record.ID, record.AggregateType, record.AggregateID, record.EventType, record.Payload, record.DedupeKey)
	return err
}

// ClaimPending locks up to limit NEW records; other publishers skip them
// until tx ends.
func (r *Repository) ClaimPending(ctx context.Context, tx pgx.Tx, limit int) ([]OutboxRecord, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload_json, created_at, published_at, status, attempts, dedupe_key
		FROM outbox WHERE status = 'NEW' ORDER BY created_at ASC LIMIT $1 FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (OutboxRecord, error) {
		var rec OutboxRecord
		err := row.Scan(&rec.ID, &rec.AggregateType, &rec.AggregateID, &rec.EventType, &rec.Payload,
			&rec.CreatedAt, &rec.PublishedAt, &rec.Status, &rec.Attempts, &rec.DedupeKey)
		return rec, err
	})
}

func (r *Repository) MarkPublished(ctx context.Context, tx pgx.Tx, id uuid.UUID, publishedAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE outbox SET status = 'PUBLISHED', published_at = $2, attempts = attempts + 1 WHERE id = $1
	`, id, publishedAt)
	return err
}

// MarkAttemptFailed counts a failed publish and parks the record once it
// has used up its attempts.
func (r *Repository) MarkAttemptFailed(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE outbox SET attempts = attempts + 1,
			status = CASE WHEN attempts + 1 >= $2 THEN 'FAILED' ELSE 'NEW' END
		WHERE id = $1
	`, id, MaxOutboxAttempts)
	return err
}

// PublishPending claims a batch and hands each record to publish inside one
// transaction. It returns how many records were published.
func (r *Repository) PublishPending(ctx context.Context, limit int, publish func(context.Context, OutboxRecord) error) (int, error) {
	published := 0
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		published = 0
		records, err := r.ClaimPending(ctx, tx, limit)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := publish(ctx, rec); err != nil {
				if err := r.MarkAttemptFailed(ctx, tx, rec.ID); err != nil {
					return err
				}
				continue
			}
			if err := r.MarkPublished(ctx, tx, rec.ID, time.Now().UTC()); err != nil {
				return err
			}
			published++
		}
		return nil
	})
	return published, err
}

func (r *Repository) OutboxStatus(ctx context.Context, dedupeKey string) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM outbox WHERE dedupe_key = $1`, dedupeKey).Scan(&status)
	return status, err
}
