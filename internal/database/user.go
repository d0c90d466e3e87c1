package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/rankboard/internal/models"
)

// EnsureSchema creates the users table if it does not exist. seq records
// registration order; LoadUsers replays it so the leaderboard tie-break
// survives a restart.
func (s *Store) EnsureSchema(ctx context.Context) error {
	q := `
	CREATE TABLE IF NOT EXISTS users (
		seq          BIGSERIAL,
		identity     UUID PRIMARY KEY,
		display_name TEXT    NOT NULL,
		balance      BIGINT  NOT NULL DEFAULT 0,
		logged_in    BOOLEAN NOT NULL DEFAULT FALSE,
		points       BIGINT  NOT NULL DEFAULT 0
	)`
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("failed to ensure users schema: %w", err)
	}
	return nil
}

// InsertUser writes the snapshot row for a newly registered identity.
func (s *Store) InsertUser(ctx context.Context, u models.UserRecord) error {
	q := `INSERT INTO users (identity, display_name, balance, logged_in, points)
	      VALUES ($1, $2, $3, $4, $5)`

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			u.Identity, u.DisplayName, u.Balance, u.LoggedIn, u.Points,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateUser overwrites the mutable fields of an identity's snapshot row.
func (s *Store) UpdateUser(ctx context.Context, u models.UserRecord) error {
	q := `
	UPDATE users
	SET balance=$1, logged_in=$2, points=$3
	WHERE identity=$4
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, u.Balance, u.LoggedIn, u.Points, u.Identity)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// LoadUsers returns every snapshot row in registration order.
func (s *Store) LoadUsers(ctx context.Context) ([]models.UserRecord, error) {
	q := `
	SELECT identity, display_name, balance, logged_in, points
	FROM users
	ORDER BY seq
	`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.UserRecord
	for rows.Next() {
		var u models.UserRecord
		if err := rows.Scan(&u.Identity, &u.DisplayName, &u.Balance, &u.LoggedIn, &u.Points); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
