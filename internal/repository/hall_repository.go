package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// HallRepo persists halls. Halls are append-only: there is no update or
// delete because shows depend on their geometry.
type HallRepo struct {
	db *sql.DB
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

const hallColumns = `id, name, seat_rows, seat_cols, created_at`

func scanHall(row interface{ Scan(...any) error }, h *model.Hall) error {
	return row.Scan(&h.ID, &h.Name, &h.Rows, &h.Cols, &h.CreatedAt)
}

// Create inserts the hall. A name clash yields ErrDuplicate.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	const q = `INSERT INTO halls (id, name, seat_rows, seat_cols, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, h.ID, h.Name, h.Rows, h.Cols, h.CreatedAt); err != nil {
		return translate(err)
	}
	return nil
}

// GetByID retrieves a hall by its ID. It returns ErrHallNotFound when no
// row is found.
func (r *HallRepo) GetByID(ctx context.Context, id string) (*model.Hall, error) {
	const q = `SELECT ` + hallColumns + ` FROM halls WHERE id = ?`
	var h model.Hall
	if err := scanHall(r.db.QueryRowContext(ctx, q, id), &h); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return &h, nil
}

// List returns every hall ordered by creation time.
func (r *HallRepo) List(ctx context.Context) ([]model.Hall, error) {
	const q = `SELECT ` + hallColumns + ` FROM halls ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Hall{}
	for rows.Next() {
		var h model.Hall
		if err := scanHall(rows, &h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
