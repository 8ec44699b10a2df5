package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

// MovieRepo persists movies. Deletion is a status change, never a DELETE.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = `id, title, slug, genre, duration_mins, description, poster_url, is_active, created_at, updated_at`

func scanMovie(row interface{ Scan(...any) error }, m *model.Movie) error {
	return row.Scan(&m.ID, &m.Title, &m.Slug, &m.Genre, &m.DurationMins, &m.Description,
		&m.PosterURL, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
}

// Create inserts the movie. A slug clash yields ErrDuplicate.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (` + movieColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.Title, m.Slug, m.Genre, m.DurationMins, m.Description,
		m.PosterURL, m.IsActive, m.CreatedAt, m.UpdatedAt)
	return translate(err)
}

// GetByID returns ErrMovieNotFound when no row matches.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	return r.getOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
}

// GetBySlug returns ErrMovieNotFound when no row matches.
func (r *MovieRepo) GetBySlug(ctx context.Context, slug string) (*model.Movie, error) {
	return r.getOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE slug = ?`, slug)
}

func (r *MovieRepo) getOne(ctx context.Context, q string, arg any) (*model.Movie, error) {
	var m model.Movie
	if err := scanMovie(r.db.QueryRowContext(ctx, q, arg), &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// SlugExists reports whether any movie already uses slug.
func (r *MovieRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE slug = ? LIMIT 1`, slug).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// List returns movies ordered by creation time. activeOnly restricts the
// result to movies visible to customers.
func (r *MovieRepo) List(ctx context.Context, activeOnly bool) ([]model.Movie, error) {
	q := `SELECT ` + movieColumns + ` FROM movies`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetActive changes the visibility flag. Setting the current value again
// is not an error. Unknown ids yield ErrMovieNotFound.
func (r *MovieRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	const q = `UPDATE movies SET is_active = ?, updated_at = ? WHERE id = ? AND is_active <> ?`
	res, err := r.db.ExecContext(ctx, q, active, at, id, active)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// nothing changed: either already in that state or missing
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMovieNotFound
	}
	return err
}
