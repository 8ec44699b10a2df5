package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// ShowRepo persists shows. Reads join movies and halls so every show
// carries its movie title and hall name.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

const showSelect = `SELECT s.id, s.movie_id, m.title, s.hall_id, h.name, h.seat_rows, h.seat_cols, s.starts_at, s.ends_at, s.price, s.created_at
               FROM shows s
               JOIN movies m ON m.id = s.movie_id
               JOIN halls h ON h.id = s.hall_id`

type queryer interface {
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
}

func queryShows(ctx context.Context, db queryer, q string, args ...any) ([]model.Show, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Show{}
	for rows.Next() {
		var s model.Show
		if err := rows.Scan(&s.ID, &s.MovieID, &s.MovieTitle, &s.Hall.ID, &s.Hall.Name, &s.Hall.Rows, &s.Hall.Cols,
			&s.StartTime, &s.EndTime, &s.Price, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const insertShow = `INSERT INTO shows (id, movie_id, hall_id, starts_at, ends_at, price, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

// Create inserts the show without checking the hall schedule.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	_, err := r.db.ExecContext(ctx, insertShow, s.ID, s.MovieID, s.Hall.ID, s.StartTime, s.EndTime, s.Price, s.CreatedAt)
	return translate(err)
}

// CreateIfFree inserts the show unless another show in the same hall
// overlaps [StartTime, EndTime). The hall row is locked for the duration
// of the transaction so concurrent schedules for one hall serialise. When
// overlaps exist nothing is written and they are returned.
func (r *ShowRepo) CreateIfFree(ctx context.Context, s *model.Show) (overlaps []model.Show, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil || len(overlaps) > 0 {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	var hallID string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM halls WHERE id = ? FOR UPDATE`, s.Hall.ID).Scan(&hallID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	overlaps, err = queryShows(ctx, tx, showSelect+`
               WHERE s.hall_id = ? AND s.starts_at < ? AND s.ends_at > ?
               ORDER BY s.starts_at, s.id`, s.Hall.ID, s.EndTime, s.StartTime)
	if err != nil || len(overlaps) > 0 {
		return overlaps, err
	}
	if _, err = tx.ExecContext(ctx, insertShow, s.ID, s.MovieID, s.Hall.ID, s.StartTime, s.EndTime, s.Price, s.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return nil, nil
}

// List returns every show ordered by start time.
func (r *ShowRepo) List(ctx context.Context) ([]model.Show, error) {
	return queryShows(ctx, r.db, showSelect+` ORDER BY s.starts_at, s.id`)
}

// ListByMovie returns the shows of one movie ordered by start time. An
// unknown movie simply has no shows.
func (r *ShowRepo) ListByMovie(ctx context.Context, movieID string) ([]model.Show, error) {
	return queryShows(ctx, r.db, showSelect+` WHERE s.movie_id = ? ORDER BY s.starts_at, s.id`, movieID)
}
