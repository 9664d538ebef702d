package client

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
SELECT id, name, email, phone, address, created_at, updated_at
FROM clients
`

func scan(row pgx.Row) (*Client, error) {
	c := &Client{}
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, in Input) (*Client, error) {
	const q = `
INSERT INTO clients (name, email, phone, address)
VALUES ($1, $2, $3, $4)
RETURNING id, name, email, phone, address, created_at, updated_at
`
	return scan(r.db.QueryRow(ctx, q, in.Name, in.Email, in.Phone, in.Address))
}

func (r *Repository) Update(ctx context.Context, id string, in Input) (*Client, error) {
	const q = `
UPDATE clients
SET name = $2, email = $3, phone = $4, address = $5, updated_at = NOW()
WHERE id = $1
RETURNING id, name, email, phone, address, created_at, updated_at
`
	return scan(r.db.QueryRow(ctx, q, id, in.Name, in.Email, in.Phone, in.Address))
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Client, error) {
	return scan(r.db.QueryRow(ctx, selectColumns+"WHERE id = $1", id))
}

// GetMany returns the clients with the given ids keyed by id. Unknown ids are skipped.
func (r *Repository) GetMany(ctx context.Context, ids []string) (map[string]Client, error) {
	out := map[string]Client{}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, selectColumns+"WHERE id = ANY($1::uuid[])", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out[c.ID] = *c
	}
	return out, rows.Err()
}

func (r *Repository) List(ctx context.Context, query string, p pagination.Params) ([]Client, int64, error) {
	const where = `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
`
	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM clients\n"+where, query).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, selectColumns+where+"ORDER BY name ASC\nLIMIT $2 OFFSET $3", query, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
