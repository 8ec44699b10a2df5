package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

var showColumns = []string{"id", "movie_id", "title", "hall_id", "name", "seat_rows", "seat_cols", "starts_at", "ends_at", "price", "created_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func scheduled(start time.Time) *model.Show {
	return &model.Show{
		ID:        "s1",
		MovieID:   "m1",
		Hall:      model.HallRef{ID: "h1"},
		StartTime: start,
		EndTime:   start.Add(155 * time.Minute),
		Price:     model.NewPrice(decimal.NewFromInt(1200)),
		CreatedAt: start.Add(-time.Hour),
	}
}

var (
	lockHall     = regexp.QuoteMeta(`SELECT id FROM halls WHERE id = ? FOR UPDATE`)
	overlapQuery = regexp.QuoteMeta(`WHERE s.hall_id = ? AND s.starts_at < ? AND s.ends_at > ?`)
	insertQuery  = regexp.QuoteMeta(`INSERT INTO shows`)
)

func TestCreateIfFreeCommitsWhenHallIsFree(t *testing.T) {
	db, mock := newMock(t)
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	s := scheduled(start)

	mock.ExpectBegin()
	mock.ExpectQuery(lockHall).WithArgs("h1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("h1"))
	mock.ExpectQuery(overlapQuery).WithArgs("h1", s.EndTime, s.StartTime).WillReturnRows(sqlmock.NewRows(showColumns))
	mock.ExpectExec(insertQuery).
		WithArgs("s1", "m1", "h1", s.StartTime, s.EndTime, sqlmock.AnyArg(), s.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	overlaps, err := NewShowRepo(db).CreateIfFree(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIfFreeRollsBackOnOverlap(t *testing.T) {
	db, mock := newMock(t)
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	s := scheduled(start)

	existing := sqlmock.NewRows(showColumns).
		AddRow("s0", "m2", "Alien", "h1", "Hall 1", 10, 12, start.Add(-time.Hour), start.Add(time.Hour), "900.00", start.Add(-2*time.Hour))

	mock.ExpectBegin()
	mock.ExpectQuery(lockHall).WithArgs("h1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("h1"))
	mock.ExpectQuery(overlapQuery).WithArgs("h1", s.EndTime, s.StartTime).WillReturnRows(existing)
	mock.ExpectRollback()

	overlaps, err := NewShowRepo(db).CreateIfFree(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, overlaps, 1)
	got := overlaps[0]
	assert.Equal(t, "s0", got.ID)
	assert.Equal(t, "Alien", got.MovieTitle)
	assert.Equal(t, model.HallRef{ID: "h1", Name: "Hall 1", Rows: 10, Cols: 12}, got.Hall)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(900)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIfFreeMissingHall(t *testing.T) {
	db, mock := newMock(t)
	s := scheduled(time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC))

	mock.ExpectBegin()
	mock.ExpectQuery(lockHall).WithArgs("h1").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := NewShowRepo(db).CreateIfFree(context.Background(), s)
	assert.ErrorIs(t, err, ErrHallNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIfFreeRollsBackFailedInsert(t *testing.T) {
	db, mock := newMock(t)
	s := scheduled(time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC))

	mock.ExpectBegin()
	mock.ExpectQuery(lockHall).WithArgs("h1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("h1"))
	mock.ExpectQuery(overlapQuery).WillReturnRows(sqlmock.NewRows(showColumns))
	mock.ExpectExec(insertQuery).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := NewShowRepo(db).CreateIfFree(context.Background(), s)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByMovieOrdersByStart(t *testing.T) {
	db, mock := newMock(t)
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE s.movie_id = ? ORDER BY s.starts_at, s.id`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(showColumns).
			AddRow("a", "m1", "Dune", "h1", "Hall 1", 10, 12, start, start.Add(time.Hour), "10.00", start).
			AddRow("b", "m1", "Dune", "h2", "Hall 2", 5, 5, start.Add(24*time.Hour), start.Add(25*time.Hour), "12.50", start))

	shows, err := NewShowRepo(db).ListByMovie(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, shows, 2)
	assert.Equal(t, "a", shows[0].ID)
	assert.Equal(t, "Hall 2", shows[1].Hall.Name)
	assert.True(t, shows[1].Price.Equal(decimal.RequireFromString("12.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActive(t *testing.T) {
	update := regexp.QuoteMeta(`UPDATE movies SET is_active = ?, updated_at = ? WHERE id = ? AND is_active <> ?`)
	exists := regexp.QuoteMeta(`SELECT 1 FROM movies WHERE id = ?`)
	at := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	t.Run("changed", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(update).WithArgs(false, at, "m1", false).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewMovieRepo(db).SetActive(context.Background(), "m1", false, at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already in state", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(exists).WithArgs("m1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		assert.NoError(t, NewMovieRepo(db).SetActive(context.Background(), "m1", false, at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(exists).WithArgs("nope").WillReturnRows(sqlmock.NewRows([]string{"1"}))

		assert.ErrorIs(t, NewMovieRepo(db).SetActive(context.Background(), "nope", false, at), ErrMovieNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDuplicateKeyTranslation(t *testing.T) {
	dup := &mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry 'Hall 1' for key 'uq_halls_name'"}

	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO halls`)).WillReturnError(dup)
	err := NewHallRepo(db).Create(context.Background(), &model.Hall{ID: "h2", Name: "Hall 1", Rows: 1, Cols: 1})
	assert.ErrorIs(t, err, ErrDuplicate)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO movies`)).WillReturnError(dup)
	err = NewMovieRepo(db).Create(context.Background(), &model.Movie{ID: "m2", Title: "Dune", Slug: "dune"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())

	other := &mysql.MySQLError{Number: 1452, Message: "foreign key"}
	assert.Equal(t, other, translate(other))
	boom := errors.New("boom")
	assert.Equal(t, boom, translate(boom))
	assert.Nil(t, translate(nil))
}
