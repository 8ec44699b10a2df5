package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the catalog tables when missing. Statements are
// idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS halls (
		id         CHAR(36)     NOT NULL PRIMARY KEY,
		name       VARCHAR(120) NOT NULL,
		seat_rows  INT          NOT NULL,
		seat_cols  INT          NOT NULL,
		created_at DATETIME(3)  NOT NULL,
		UNIQUE KEY uq_halls_name (name),
		CHECK (seat_rows > 0),
		CHECK (seat_cols > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS movies (
		id            CHAR(36)      NOT NULL PRIMARY KEY,
		title         VARCHAR(255)  NOT NULL,
		slug          VARCHAR(255)  NOT NULL,
		genre         VARCHAR(120)  NOT NULL DEFAULT '',
		duration_mins INT           NOT NULL,
		description   TEXT          NOT NULL,
		poster_url    VARCHAR(1024) NOT NULL DEFAULT '',
		is_active     BOOLEAN       NOT NULL DEFAULT TRUE,
		created_at    DATETIME(3)   NOT NULL,
		updated_at    DATETIME(3)   NOT NULL,
		UNIQUE KEY uq_movies_slug (slug),
		KEY idx_movies_active (is_active, created_at),
		CHECK (duration_mins > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS shows (
		id         CHAR(36)      NOT NULL PRIMARY KEY,
		movie_id   CHAR(36)      NOT NULL,
		hall_id    CHAR(36)      NOT NULL,
		starts_at  DATETIME(3)   NOT NULL,
		ends_at    DATETIME(3)   NOT NULL,
		price      DECIMAL(12,2) NOT NULL,
		created_at DATETIME(3)   NOT NULL,
		KEY idx_shows_movie (movie_id, starts_at),
		KEY idx_shows_hall (hall_id, starts_at),
		CONSTRAINT fk_shows_movie FOREIGN KEY (movie_id) REFERENCES movies (id),
		CONSTRAINT fk_shows_hall FOREIGN KEY (hall_id) REFERENCES halls (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		name          VARCHAR(120) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL,
		created_at    DATETIME(3)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
