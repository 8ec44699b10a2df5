// Package repository holds the MySQL record stores for halls, movies,
// shows and users. The sentinel errors below are shared with the
// in-memory stores so the service layer can translate both the same way.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrHallNotFound is returned when a hall lookup fails.
	ErrHallNotFound = errors.New("hall not found")
	// ErrMovieNotFound is returned when a movie lookup fails.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrUserNotFound is returned when a user lookup fails.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicate is returned when an insert violates a unique key
	// (hall name, movie slug, user email).
	ErrDuplicate = errors.New("duplicate record")
)

// mysqlDuplicateEntry is the server error number for ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// translate maps driver errors onto the shared sentinels.
func translate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrDuplicate
	}
	return err
}
