package crdb

import (
	"context"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/forms"
	"github.com/robertarktes/event-registration/internal/observability"
)

const (
	SerializationFailureCode = "40001"
	UniqueViolationCode      = "23505"
)

const (
	EventRegistrationConfirmed = "registration.confirmed"
	EventFormSubmitted         = "form.submitted"
)

//go:embed schema.sql
var schema string

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return errors.Wrap(err, "apply schema")
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() { observability.DBTxDuration.Observe(time.Since(start).Seconds()) }()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return translate(err)
	}
	return translate(tx.Commit(ctx))
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case SerializationFailureCode:
			return domain.ErrSerializationFailure
		case UniqueViolationCode:
			return errors.Wrap(domain.ErrConflict, pgErr.ConstraintName)
		}
	}
	return err
}

// Record stores the confirmation, its add-ons and the outbox record for
// registration.confirmed in one transaction.
func (r *Repository) Record(ctx context.Context, c domain.Confirmation) error {
	snapshot, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode confirmation")
	}
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		a := c.Draft.Attendee
		if _, err := tx.Exec(ctx, `
			INSERT INTO confirmations (order_id, event_id, ticket_id, first_name, last_name, email, total, snapshot_json, confirmed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, c.OrderID, c.Event.ID, c.Ticket.ID, a.FirstName, a.LastName, a.Email, c.Total, snapshot, c.ConfirmedAt); err != nil {
			return err
		}

		if len(c.AddOns) > 0 {
			batch := &pgx.Batch{}
			for _, addon := range c.AddOns {
				batch.Queue(`INSERT INTO confirmation_addons (order_id, addon_id, price) VALUES ($1, $2, $3)`,
					c.OrderID, addon.ID, addon.Price)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return err
			}
		}

		return r.InsertOutbox(ctx, tx, OutboxRecord{
			ID:            uuid.New(),
			AggregateType: "confirmation",
			AggregateID:   c.OrderID,
			EventType:     EventRegistrationConfirmed,
			Payload:       snapshot,
			DedupeKey:     EventRegistrationConfirmed + ":" + c.OrderID,
		})
	})
}

func (r *Repository) GetConfirmation(ctx context.Context, orderID string) (domain.Confirmation, error) {
	var snapshot []byte
	err := r.pool.QueryRow(ctx, `SELECT snapshot_json FROM confirmations WHERE order_id = $1`, orderID).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Confirmation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Confirmation{}, err
	}
	var c domain.Confirmation
	if err := json.Unmarshal(snapshot, &c); err != nil {
		return domain.Confirmation{}, errors.Wrapf(err, "decode confirmation %s", orderID)
	}
	return c, nil
}

// SaveSubmission stores an accepted form and queues form.submitted.
func (r *Repository) SaveSubmission(ctx context.Context, s forms.Submission) error {
	event, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode submission")
	}
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO form_submissions (id, kind, session_id, total_cents, payload_json, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, s.ID, string(s.Kind), s.SessionID, s.Total, []byte(s.Payload), s.SubmittedAt); err != nil {
			return err
		}
		return r.InsertOutbox(ctx, tx, OutboxRecord{
			ID:            uuid.New(),
			AggregateType: "form",
			AggregateID:   s.ID.String(),
			EventType:     EventFormSubmitted,
			Payload:       event,
			DedupeKey:     EventFormSubmitted + ":" + s.ID.String(),
		})
	})
}

func (r *Repository) CountSubmissions(ctx context.Context, kind forms.Kind) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM form_submissions WHERE kind = $1`, string(kind)).Scan(&n)
	return n, err
}
