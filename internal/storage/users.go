package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

// CreateUser inserts a user and returns it with the assigned ID.
func (q *Queries) CreateUser(ctx context.Context, username string) (core.User, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO users (username) VALUES (?)`, username)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user id: %w", err)
	}
	return core.User{ID: id, Username: username}, nil
}

// GetUser loads a user by ID.
func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := q.db.QueryRowContext(ctx, `SELECT id, username FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByName loads a user by username.
func (q *Queries) GetUserByName(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := q.db.QueryRowContext(ctx, `SELECT id, username FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by name: %w", err)
	}
	return u, nil
}
