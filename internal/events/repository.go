package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Timeline event types.
const (
	TypeCreated         = "DOCUMENT_CREATED"
	TypeUpdated         = "DOCUMENT_UPDATED"
	TypeStatusChanged   = "STATUS_CHANGED"
	TypeMilestonesReset = "MILESTONES_RESET"
	TypeTerminPaid      = "TERMIN_PAID"
	TypeTerminUnpaid    = "TERMIN_UNPAID"
	TypeAdminOverride   = "ADMIN_OVERRIDE"
)

type Event struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	EventType  string    `json:"eventType"`
	Summary    string    `json:"summary"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func Insert(ctx context.Context, tx pgx.Tx, documentID, eventType, summary, actor string, occurredAt time.Time, data any) error {
	var s *string
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal event data: %w", err)
		}
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO document_events (document_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := tx.Exec(ctx, q, documentID, eventType, summary, actor, occurredAt, s)
	return err
}

func (r *Repository) ListByDocument(ctx context.Context, documentID string) ([]Event, error) {
	const q = `
SELECT id, document_id, event_type, summary, actor, occurred_at, COALESCE(data, '{}'::jsonb)
FROM document_events
WHERE document_id = $1
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := r.db.Query(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &e.Data); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
