package document

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"studiodesk/internal/termin"
	"studiodesk/pkg/db"
	"studiodesk/pkg/pagination"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const selectColumns = `
SELECT id, kind, number, title, client_id::text, project_id::text, category,
       area::text, unit_price::text, total_value::text, milestones, active_milestone_index,
       status, notes, created_at, updated_at
FROM documents
`

type Filter struct {
	Kind      Kind
	Category  termin.Category
	ClientID  string
	ProjectID string
	Status    Status
	Query     string
}

func (f Filter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Kind != "" {
		add("kind = ?", string(f.Kind))
	}
	if f.Category != "" {
		add("category = ?", string(f.Category))
	}
	if f.ClientID != "" {
		add("client_id = ?::uuid", f.ClientID)
	}
	if f.ProjectID != "" {
		add("project_id = ?::uuid", f.ProjectID)
	}
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		add("(number ILIKE ? OR title ILIKE ?)", "%"+q+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND ") + "\n", args
}

func (r *Repository) List(ctx context.Context, f Filter, p pagination.Params) ([]Document, int64, error) {
	where, args := f.where()

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM documents\n"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	n := len(args)
	q := selectColumns + where + fmt.Sprintf("ORDER BY updated_at DESC\nLIMIT $%d OFFSET $%d\n", n+1, n+2)
	rows, err := r.db.Query(ctx, q, append(args, p.PerPage, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Document, error) {
	return scanDocument(r.db.QueryRow(ctx, selectColumns+"WHERE id = $1", id))
}

// ListByKind loads every document of a kind, oldest first. Reports use it.
func (r *Repository) ListByKind(ctx context.Context, kind Kind) ([]Document, error) {
	rows, err := r.db.Query(ctx, selectColumns+"WHERE kind = $1\nORDER BY created_at ASC", string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s documents: %w", kind, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Document, error) {
	return scanDocument(tx.QueryRow(ctx, selectColumns+"WHERE id = $1\nFOR UPDATE", id))
}

// NextSequence counts the documents of a kind created in year. It runs inside the
// creating transaction; the unique (kind, number) index catches the rare race.
func NextSequence(ctx context.Context, tx pgx.Tx, kind Kind, year int) (int, error) {
	const q = `
SELECT COUNT(*) + 1
FROM documents
WHERE kind = $1 AND date_part('year', created_at) = $2
`
	var n int
	if err := tx.QueryRow(ctx, q, string(kind), year).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func Create(ctx context.Context, tx pgx.Tx, d Document) (*Document, error) {
	ms, err := json.Marshal(milestonesOrEmpty(d.Milestones))
	if err != nil {
		return nil, fmt.Errorf("marshal milestones: %w", err)
	}
	const q = `
INSERT INTO documents (kind, number, title, client_id, project_id, category, area, unit_price, total_value,
                       milestones, active_milestone_index, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9::numeric, CAST($10 AS jsonb), $11, $12, $13)
RETURNING id
`
	var id string
	if err := tx.QueryRow(ctx, q,
		string(d.Kind), d.Number, d.Title, d.ClientID, d.ProjectID, string(d.Category),
		d.Area.String(), d.UnitPrice.String(), d.TotalValue.String(),
		string(ms), d.ActiveMilestoneIndex, string(d.Status), d.Notes,
	).Scan(&id); err != nil {
		return nil, err
	}
	return scanDocument(tx.QueryRow(ctx, selectColumns+"WHERE id = $1", id))
}

// Update overwrites every mutable column. Concurrent edits are last-write-wins.
func Update(ctx context.Context, tx pgx.Tx, d Document) (*Document, error) {
	ms, err := json.Marshal(milestonesOrEmpty(d.Milestones))
	if err != nil {
		return nil, fmt.Errorf("marshal milestones: %w", err)
	}
	const q = `
UPDATE documents
SET number = $2, title = $3, client_id = $4, project_id = $5, category = $6,
    area = $7::numeric, unit_price = $8::numeric, total_value = $9::numeric,
    milestones = CAST($10 AS jsonb), active_milestone_index = $11, status = $12, notes = $13,
    updated_at = NOW()
WHERE id = $1
`
	tag, err := tx.Exec(ctx, q,
		d.ID, d.Number, d.Title, d.ClientID, d.ProjectID, string(d.Category),
		d.Area.String(), d.UnitPrice.String(), d.TotalValue.String(),
		string(ms), d.ActiveMilestoneIndex, string(d.Status), d.Notes,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return scanDocument(tx.QueryRow(ctx, selectColumns+"WHERE id = $1", d.ID))
}

func Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanDocument(row pgx.Row) (*Document, error) {
	var (
		d                      Document
		projectID              *string
		area, unitPrice, total string
		rawMilestones          []byte
		createdAt, updatedAt   time.Time
	)
	if err := row.Scan(
		&d.ID, &d.Kind, &d.Number, &d.Title, &d.ClientID, &projectID, &d.Category,
		&area, &unitPrice, &total, &rawMilestones, &d.ActiveMilestoneIndex,
		&d.Status, &d.Notes, &createdAt, &updatedAt,
	); err != nil {
		if db.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	d.ProjectID = projectID
	d.CreatedAt, d.UpdatedAt = createdAt, updatedAt

	var err error
	if d.Area, err = decimal.NewFromString(area); err != nil {
		return nil, fmt.Errorf("document %s area: %w", d.ID, err)
	}
	if d.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return nil, fmt.Errorf("document %s unit price: %w", d.ID, err)
	}
	if d.TotalValue, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("document %s total: %w", d.ID, err)
	}
	if err := json.Unmarshal(rawMilestones, &d.Milestones); err != nil {
		return nil, fmt.Errorf("document %s milestones: %w", d.ID, err)
	}
	d.Milestones = milestonesOrEmpty(d.Milestones)
	return &d, nil
}

func milestonesOrEmpty(ms []termin.Milestone) []termin.Milestone {
	if ms == nil {
		return []termin.Milestone{}
	}
	return ms
}
