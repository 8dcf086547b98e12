// Package repository provides persistence implementations for the
// reference backend: Postgres for deployments and memory for development.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bugboard/bugboard/internal/models"
)

// PostgresUserRepository stores accounts in the users table.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a repository over db.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser inserts acc and returns it with its new id. An e-mail that is
// already taken yields models.ErrConflict.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, acc models.Account) (models.User, error) {
	var id int
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, role) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING RETURNING id`,
		acc.Username, acc.PasswordHash, string(acc.Role),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrConflict
	}
	if err != nil {
		return models.User{}, fmt.Errorf("CreateUser: %w", err)
	}
	return models.User{ID: &id, Username: acc.Username, Role: acc.Role}, nil
}

// UserExists reports whether an account with email exists.
func (r *PostgresUserRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	return exists, err
}

// AccountByEmail returns the account with email, including its password
// hash, or models.ErrNotFound.
func (r *PostgresUserRepository) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	var (
		acc  models.Account
		id   int
		role string
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role FROM users WHERE email = $1`,
		email,
	).Scan(&id, &acc.Username, &acc.PasswordHash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("AccountByEmail: %w", err)
	}
	acc.ID = &id
	acc.Role = models.Role(role)
	return acc, nil
}

// ListUsers returns every account ordered by id.
func (r *PostgresUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, email, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var (
			id   int
			u    models.User
			role string
		)
		if err := rows.Scan(&id, &u.Username, &role); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		u.ID = &id
		u.Role = models.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}
