// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agentlist-service/internal/domain/admin"
	"agentlist-service/internal/metrics"
	xerrors "agentlist-service/internal/pkg/errors"
	"agentlist-service/internal/pkg/jwt"
	"agentlist-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminStore is the admin persistence the auth flow needs.
type AdminStore interface {
	FindByEmail(ctx context.Context, email string) (*admin.Admin, error)
	FindByID(ctx context.Context, id int64) (*admin.Admin, error)
	Create(ctx context.Context, a *admin.Admin) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", xerrors.ErrUnauthorized)

type AuthService struct {
	admins         AdminStore
	jwtManager     *jwt.Manager
	sessionManager *session.Manager
	rateLimiter    *session.RateLimiter
	logger         *zap.Logger
}

func NewAuthService(
	admins AdminStore,
	jwtManager *jwt.Manager,
	sessionManager *session.Manager,
	rateLimiter *session.RateLimiter,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		admins:         admins,
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		logger:         logger,
	}
}

// Login checks credentials, issues an access token and opens a session.
func (s *AuthService) Login(ctx context.Context, req *admin.LoginRequest) (*admin.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)

	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, email)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		return nil, xerrors.ErrRateLimited
	}

	a, err := s.admins.FindByEmail(ctx, email)
	if errors.Is(err, xerrors.ErrNotFound) {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		s.logger.Warn("failed admin login",
			zap.String("email", email),
			zap.String("ip", req.IPAddress),
			zap.Int64("attempts_remaining", remaining),
		)
		return nil, errInvalidCredentials
	}

	if !a.IsActive {
		metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		return nil, fmt.Errorf("%w: account is inactive", xerrors.ErrForbidden)
	}
	if !a.CanUseDashboard() {
		metrics.LoginAttempts.WithLabelValues("forbidden").Inc()
		return nil, fmt.Errorf("%w: account has no admin role", xerrors.ErrForbidden)
	}

	tok, err := s.jwtManager.Generator.GenerateAccessToken(a.ID, a.Email, []string(a.Roles), req.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	sess := &session.SessionData{
		JTI:            tok.JTI,
		AdminID:        a.ID,
		Email:          a.Email,
		Roles:          []string(a.Roles),
		Device:         req.Device,
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      tok.ExpiresAt,
	}
	if err := s.sessionManager.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.admins.UpdateLastLogin(ctx, a.ID); err != nil {
		s.logger.Error("failed to update last login", zap.Int64("admin_id", a.ID), zap.Error(err))
	}
	if err := s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.logger.Info("admin logged in", zap.Int64("admin_id", a.ID), zap.String("ip", req.IPAddress))

	a.LastLogin = &now
	return &admin.LoginResponse{
		Token:     tok.Value,
		TokenType: "Bearer",
		ExpiresIn: int(time.Until(tok.ExpiresAt).Seconds()),
		ExpiresAt: tok.ExpiresAt,
		User:      a.Info(),
	}, nil
}

// Logout revokes the token and drops its session.
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims.ExpiresAt != nil {
		if err := s.sessionManager.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			return fmt.Errorf("failed to blacklist token: %w", err)
		}
	}

	if err := s.sessionManager.InvalidateSession(ctx, claims.AdminID, claims.ID); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	s.logger.Info("admin logged out", zap.Int64("admin_id", claims.AdminID))
	return nil
}

// Me returns the admin behind a verified token.
func (s *AuthService) Me(ctx context.Context, adminID int64) (*admin.AdminInfo, error) {
	a, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	info := a.Info()
	return &info, nil
}

// ValidateToken verifies the signature, then checks the token is neither
// revoked nor detached from a live session.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, err)
	}

	blacklisted, err := s.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return nil, fmt.Errorf("%w: token has been revoked", xerrors.ErrUnauthorized)
	}

	sess, err := s.sessionManager.GetSession(ctx, claims.AdminID, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: session not found or expired", xerrors.ErrUnauthorized)
	}
	s.sessionManager.Touch(ctx, sess)

	return claims, nil
}
