package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// AuthHash returns the stored password hash, or "" before setup.
func (db *DB) AuthHash(ctx context.Context) (string, error) {
	var hash string
	err := db.Pool.QueryRow(ctx, `SELECT password_hash FROM auth WHERE id = 1`).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", translate(err, "reading auth")
	}
	return hash, nil
}

// InitAuth stores the first password hash and token. It reports false if a
// password already exists.
func (db *DB) InitAuth(ctx context.Context, hash, token string) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO auth (id, password_hash, token) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO NOTHING`, hash, token)
	if err != nil {
		return false, translate(err, "initializing auth")
	}
	return tag.RowsAffected() > 0, nil
}

// SetAuthToken replaces the current token.
func (db *DB) SetAuthToken(ctx context.Context, token string) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE auth SET token = $1, updated_at = now() WHERE id = 1`, token)
	if err != nil {
		return translate(err, "storing token")
	}
	return nil
}

// AuthToken returns the current token, or "" before setup.
func (db *DB) AuthToken(ctx context.Context) (string, error) {
	var token string
	err := db.Pool.QueryRow(ctx, `SELECT token FROM auth WHERE id = 1`).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", translate(err, "reading auth")
	}
	return token, nil
}
