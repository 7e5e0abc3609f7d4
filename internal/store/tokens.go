// ABOUTME: AuthToken CRUD operations, scoped and unscoped variants
// ABOUTME: Token ids are fresh random strings; trapp ownership is FK-enforced

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/solatis/trapperkeeper/internal/token"
)

// authTokenLength is the length of generated auth token identifiers.
const authTokenLength = 32

// CreateAuthToken generates a fresh random token id and inserts it for the
// given trapp. If the trapp does not exist, the foreign-key constraint
// rejects the insert and ErrTrappNotFound is returned; that is the only way
// "trapp not found" surfaces here.
func CreateAuthToken(ctx context.Context, conn *sql.Conn, trappID int64, name string) (string, error) {
	id := token.Generate(authTokenLength)

	_, err := conn.ExecContext(ctx,
		`INSERT INTO auth_tokens (id, trapp_id, name) VALUES (?, ?, ?)`,
		id, trappID, name)
	if err != nil {
		if isForeignKeyViolation(err) {
			return "", ErrTrappNotFound
		}
		return "", fmt.Errorf("inserting auth token: %w", err)
	}

	return id, nil
}

// GetAuthToken retrieves an auth token by id. Returns ErrNotFound if it
// doesn't exist.
func GetAuthToken(ctx context.Context, conn *sql.Conn, id string) (*AuthToken, error) {
	var t AuthToken
	err := conn.QueryRowContext(ctx,
		`SELECT id, trapp_id, name FROM auth_tokens WHERE id = ?`, id).
		Scan(&t.ID, &t.TrappID, &t.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying auth token: %w", err)
	}
	return &t, nil
}

// GetAuthTokenByTrapp retrieves an auth token by id, additionally scoped to
// a trapp. The scoping lets a caller answer "does this token belong to this
// trapp" in one round trip.
func GetAuthTokenByTrapp(ctx context.Context, conn *sql.Conn, trappID int64, id string) (*AuthToken, error) {
	var t AuthToken
	err := conn.QueryRowContext(ctx,
		`SELECT id, trapp_id, name FROM auth_tokens WHERE id = ? AND trapp_id = ?`,
		id, trappID).Scan(&t.ID, &t.TrappID, &t.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying auth token by trapp: %w", err)
	}
	return &t, nil
}

// GetAuthTokensByTrapp returns all auth tokens owned by a trapp, in storage
// order.
func GetAuthTokensByTrapp(ctx context.Context, conn *sql.Conn, trappID int64) ([]AuthToken, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT id, trapp_id, name FROM auth_tokens WHERE trapp_id = ?`, trappID)
	if err != nil {
		return nil, fmt.Errorf("querying auth tokens: %w", err)
	}
	defer rows.Close()

	var tokens []AuthToken
	for rows.Next() {
		var t AuthToken
		if err := rows.Scan(&t.ID, &t.TrappID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning auth token row: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating auth token rows: %w", err)
	}
	return tokens, nil
}

// DeleteAuthToken removes an auth token by id, reporting whether a row was
// removed.
func DeleteAuthToken(ctx context.Context, conn *sql.Conn, id string) (bool, error) {
	res, err := conn.ExecContext(ctx, `DELETE FROM auth_tokens WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting auth token: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteAuthTokenByTrapp removes an auth token by id, scoped to a trapp.
func DeleteAuthTokenByTrapp(ctx context.Context, conn *sql.Conn, trappID int64, id string) (bool, error) {
	res, err := conn.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE id = ? AND trapp_id = ?`, id, trappID)
	if err != nil {
		return false, fmt.Errorf("deleting auth token by trapp: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}
