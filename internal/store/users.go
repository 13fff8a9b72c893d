package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"screenkit/internal/auth"
)

// User is an admin account.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
}

// Principal returns the identity requests by u run as.
func (u *User) Principal() *auth.User {
	return &auth.User{ID: u.ID, Name: u.Name, Email: u.Email, Permissions: u.Permissions}
}

// UserRepo handles users.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	var perms string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &perms); err != nil {
		return nil, err
	}
	for _, p := range strings.Split(perms, ",") {
		if p = strings.TrimSpace(p); p != "" {
			u.Permissions = append(u.Permissions, p)
		}
	}
	return u, nil
}

// FindByEmail loads the user with email (case-insensitive).
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, email, permissions FROM users WHERE lower(email) = lower(?)`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", email, err)
	}
	return u, nil
}

// List returns all users ordered by name.
func (r *UserRepo) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email, permissions FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
