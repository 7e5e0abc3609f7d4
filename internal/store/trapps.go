// ABOUTME: Trapp CRUD operations over an explicitly passed connection
// ABOUTME: Creation returns the server-assigned id; deletion cascades to tokens

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateTrapp inserts a trapp and returns the server-assigned id. Name has
// no uniqueness constraint; this only fails if the store itself does.
func CreateTrapp(ctx context.Context, conn *sql.Conn, name string) (int64, error) {
	res, err := conn.ExecContext(ctx, `INSERT INTO trapps (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("inserting trapp: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading trapp id: %w", err)
	}
	return id, nil
}

// GetTrapps returns all trapps in storage order.
func GetTrapps(ctx context.Context, conn *sql.Conn) ([]Trapp, error) {
	rows, err := conn.QueryContext(ctx, `SELECT id, name FROM trapps`)
	if err != nil {
		return nil, fmt.Errorf("querying trapps: %w", err)
	}
	defer rows.Close()

	var trapps []Trapp
	for rows.Next() {
		var t Trapp
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning trapp row: %w", err)
		}
		trapps = append(trapps, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trapp rows: %w", err)
	}
	return trapps, nil
}

// GetTrapp retrieves a trapp by id. Returns ErrNotFound if it doesn't exist.
func GetTrapp(ctx context.Context, conn *sql.Conn, id int64) (*Trapp, error) {
	var t Trapp
	err := conn.QueryRowContext(ctx,
		`SELECT id, name FROM trapps WHERE id = ?`, id).Scan(&t.ID, &t.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying trapp: %w", err)
	}
	return &t, nil
}

// DeleteTrapp removes a trapp by id and reports whether a row was actually
// removed. Deleting an absent id returns false, never an error, any number
// of times. Owned auth tokens are removed by the cascade.
func DeleteTrapp(ctx context.Context, conn *sql.Conn, id int64) (bool, error) {
	res, err := conn.ExecContext(ctx, `DELETE FROM trapps WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting trapp: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}
