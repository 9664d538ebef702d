package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiodesk/pkg/pagination"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Audited collections.
const (
	CollectionProjects   = "projects"
	CollectionInvoices   = "invoices"
	CollectionQuotations = "quotations"
)

type Entry struct {
	Collection string
	RecordID   string
	Action     Action
	Actor      string
	Metadata   any
}

type Record struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	RecordID   string          `json:"recordId"`
	Action     Action          `json:"action"`
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

// Insert writes the audit row inside the caller's transaction so it commits or rolls back
// with the change it describes.
func Insert(ctx context.Context, tx pgx.Tx, e Entry) error {
	var s *string
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO audit_logs (collection, record_id, action, actor, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := tx.Exec(ctx, q, e.Collection, e.RecordID, string(e.Action), e.Actor, s)
	return err
}

type Filter struct {
	Collection string
	RecordID   string
}

func (r *Repository) List(ctx context.Context, f Filter, p pagination.Params) ([]Record, int64, error) {
	const where = `
WHERE ($1 = '' OR collection = $1)
  AND ($2 = '' OR record_id = $2)
`
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, f.Collection, f.RecordID).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `
SELECT id, collection, record_id, action, actor, COALESCE(metadata, 'null'::jsonb), created_at
FROM audit_logs` + where + `
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`
	rows, err := r.db.Query(ctx, q, f.Collection, f.RecordID, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Collection, &rec.RecordID, &rec.Action, &rec.Actor, &rec.Metadata, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}
