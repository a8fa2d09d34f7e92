// internal/repository/postgres/admin_repo.go
package postgres

import (
	"context"
	"fmt"

	"agentlist-service/internal/domain/admin"
	xerrors "agentlist-service/internal/pkg/errors"

	"github.com/lib/pq"
)

const adminColumns = `id, full_name, email, password_hash, roles, is_active, last_login, created_at, updated_at`

type AdminRepository struct {
	db DBTX
}

func NewAdminRepository(db DBTX) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) findOne(ctx context.Context, where string, arg any) (*admin.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE ` + where

	var a admin.Admin
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.FullName, &a.Email, &a.PasswordHash, &a.Roles,
		&a.IsActive, &a.LastLogin, &a.CreatedAt, &a.UpdatedAt,
	)
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	return &a, nil
}

// FindByEmail retrieves an admin by email for login
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*admin.Admin, error) {
	return r.findOne(ctx, `LOWER(email) = LOWER($1)`, email)
}

// FindByID retrieves an admin by ID
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*admin.Admin, error) {
	return r.findOne(ctx, `id = $1`, id)
}

// Create inserts a new admin account
func (r *AdminRepository) Create(ctx context.Context, a *admin.Admin) error {
	query := `
		INSERT INTO admins (full_name, email, password_hash, roles, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		a.FullName, a.Email, a.PasswordHash, pq.Array([]string(a.Roles)), a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if mapped := mapWriteError(err); mapped == xerrors.ErrDuplicateEntry {
			return mapped
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

// ExistsByEmail reports whether an admin with this email is registered.
func (r *AdminRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM admins WHERE LOWER(email) = LOWER($1))`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admin email: %w", err)
	}
	return exists, nil
}

func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE admins SET last_login = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
