package project

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiodesk/pkg/pagination"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const selectColumns = `
SELECT id, client_id::text, name, category, location, status, start_date::text, created_at, updated_at
FROM projects
`

const returning = `
RETURNING id, client_id::text, name, category, location, status, start_date::text, created_at, updated_at
`

func scan(row pgx.Row) (*Project, error) {
	p := &Project{}
	if err := row.Scan(&p.ID, &p.ClientID, &p.Name, &p.Category, &p.Location, &p.Status, &p.StartDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func Create(ctx context.Context, tx pgx.Tx, v Validated) (*Project, error) {
	const q = `
INSERT INTO projects (client_id, name, category, location, status, start_date)
VALUES ($1, $2, $3, $4, $5, $6::date)
` + returning
	return scan(tx.QueryRow(ctx, q, v.ClientID, v.Name, string(v.Category), v.Location, string(v.Status), v.StartDate))
}

func Update(ctx context.Context, tx pgx.Tx, id string, v Validated) (*Project, error) {
	const q = `
UPDATE projects
SET client_id = $2, name = $3, category = $4, location = $5, status = $6, start_date = $7::date, updated_at = NOW()
WHERE id = $1
` + returning
	return scan(tx.QueryRow(ctx, q, id, v.ClientID, v.Name, string(v.Category), v.Location, string(v.Status), v.StartDate))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Project, error) {
	return scan(tx.QueryRow(ctx, selectColumns+"WHERE id = $1\nFOR UPDATE", id))
}

func Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Project, error) {
	return scan(r.db.QueryRow(ctx, selectColumns+"WHERE id = $1", id))
}

func (r *Repository) GetMany(ctx context.Context, ids []string) (map[string]Project, error) {
	out := map[string]Project{}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, selectColumns+"WHERE id = ANY($1::uuid[])", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	return out, rows.Err()
}

type Filter struct {
	ClientID string
	Status   Status
}

func (r *Repository) List(ctx context.Context, f Filter, p pagination.Params) ([]Project, int64, error) {
	const where = `WHERE ($1 = '' OR client_id::text = $1) AND ($2 = '' OR status = $2)
`
	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM projects\n"+where, f.ClientID, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, selectColumns+where+"ORDER BY updated_at DESC\nLIMIT $3 OFFSET $4",
		f.ClientID, string(f.Status), p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		pr, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *pr)
	}
	return out, total, rows.Err()
}
