// internal/service/auth/bootstrap.go
package auth

import (
	"context"
	"fmt"

	"agentlist-service/internal/domain/admin"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdminExists creates the bootstrap admin account on first start.
func (s *AuthService) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	if email == "" || password == "" {
		s.logger.Warn("bootstrap admin credentials not set, skipping creation")
		return nil
	}

	exists, err := s.admins.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		s.logger.Info("admin already exists, skipping creation", zap.String("email", email))
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if fullName == "" {
		fullName = "Administrator"
	}

	a := &admin.Admin{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Roles:        pq.StringArray{admin.RoleSuperAdmin, admin.RoleAdmin},
		IsActive:     true,
	}
	if err := s.admins.Create(ctx, a); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.Int64("admin_id", a.ID), zap.String("email", email))
	return nil
}
