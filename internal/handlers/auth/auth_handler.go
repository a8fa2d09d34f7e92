// internal/handlers/auth/auth_handler.go
package auth

import (
	"context"
	"errors"
	"net/http"

	"agentlist-service/internal/domain/admin"
	"agentlist-service/internal/middleware"
	xerrors "agentlist-service/internal/pkg/errors"
	"agentlist-service/internal/pkg/jwt"
	"agentlist-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthService interface {
	Login(ctx context.Context, req *admin.LoginRequest) (*admin.LoginResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	Me(ctx context.Context, adminID int64) (*admin.AdminInfo, error)
}

// SessionNotifier tells live dashboard connections that a session ended.
type SessionNotifier interface {
	ForceLogout(adminID int64, sessionID, reason string)
}

type AuthHandler struct {
	authService AuthService
	sessions    SessionNotifier
	logger      *zap.Logger
}

func NewAuthHandler(authService AuthService, sessions SessionNotifier, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		logger:      logger,
	}
}

// Login handles admin login
func (h *AuthHandler) Login(c *gin.Context) {
	var req admin.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		switch {
		case errors.Is(err, xerrors.ErrRateLimited):
			response.Error(c, http.StatusTooManyRequests, "too many login attempts, try again later", nil)
		case errors.Is(err, xerrors.ErrForbidden):
			response.Forbidden(c, "account is disabled")
		case errors.Is(err, xerrors.ErrUnauthorized):
			response.Unauthorized(c, "invalid email or password")
		default:
			response.Error(c, http.StatusInternalServerError, "login failed", nil)
		}
		return
	}

	h.logger.Info("admin logged in",
		zap.Int64("admin_id", loginResp.User.ID),
		zap.String("email", loginResp.User.Email),
	)

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// Logout revokes the current token (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.logger.Error("logout failed",
			zap.Int64("admin_id", claims.AdminID),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}

	if h.sessions != nil {
		h.sessions.ForceLogout(claims.AdminID, claims.ID, "logout")
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// Me returns the authenticated admin (requires auth)
func (h *AuthHandler) Me(c *gin.Context) {
	adminID, ok := middleware.GetAdminID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	info, err := h.authService.Me(c.Request.Context(), adminID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "admin not found")
			return
		}
		h.logger.Error("failed to load admin", zap.Int64("admin_id", adminID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to load profile", nil)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", info)
}
