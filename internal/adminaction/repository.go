package adminaction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Record struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"documentId"`
	ActionType ActionType      `json:"actionType"`
	Reason     string          `json:"reason"`
	Actor      string          `json:"actor"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func Insert(ctx context.Context, tx pgx.Tx, documentID string, actionType ActionType, reason, actor string, metadata any) error {
	var s *string
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal admin action metadata: %w", err)
		}
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO admin_actions (document_id, action_type, reason, actor, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := tx.Exec(ctx, q, documentID, string(actionType), reason, actor, s)
	return err
}

func (r *Repository) ListByDocument(ctx context.Context, documentID string) ([]Record, error) {
	const q = `
SELECT id, document_id, action_type, reason, actor, COALESCE(metadata, 'null'::jsonb), created_at
FROM admin_actions
WHERE document_id = $1
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.DocumentID, &rec.ActionType, &rec.Reason, &rec.Actor, &rec.Metadata, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
