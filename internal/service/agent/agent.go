// internal/service/agent/agent.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"agentlist-service/internal/domain/agent"
	xerrors "agentlist-service/internal/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	mobilePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

	ErrAgentNotFound  = fmt.Errorf("%w: Agent not found", xerrors.ErrNotFound)
	ErrDuplicateEmail = fmt.Errorf("%w: Agent with this email already exists", xerrors.ErrDuplicateEntry)
)

// Store is the agent persistence the service needs.
type Store interface {
	Create(ctx context.Context, a *agent.Agent) error
	FindByID(ctx context.Context, id int64) (*agent.Agent, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]agent.Agent, error)
	Update(ctx context.Context, a *agent.Agent) error
	Delete(ctx context.Context, id int64) error
}

// Notifier is told about roster changes.
type Notifier interface {
	BroadcastAgentEvent(event string, a *agent.Agent)
}

const (
	EventCreated = "agent:created"
	EventUpdated = "agent:updated"
	EventDeleted = "agent:deleted"
)

type AgentService struct {
	store      Store
	notifier   Notifier
	logger     *zap.Logger
	bcryptCost int
}

func NewAgentService(store Store, notifier Notifier, logger *zap.Logger) *AgentService {
	return &AgentService{
		store:      store,
		notifier:   notifier,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// CreateAgent validates and stores a new active agent.
func (s *AgentService) CreateAgent(ctx context.Context, req *agent.CreateAgentRequest) (*agent.Agent, error) {
	a := &agent.Agent{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		MobileNumber: strings.TrimSpace(req.MobileNumber),
		IsActive:     true,
	}
	if err := validate(a); err != nil {
		return nil, err
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", xerrors.ErrInvalidInput)
	}

	exists, err := s.store.ExistsByEmail(ctx, a.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check agent existence: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	a.PasswordHash = string(hash)

	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, ErrDuplicateEmail
		}
		s.logger.Error("failed to create agent", zap.Error(err))
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	s.logger.Info("agent created", zap.Int64("agent_id", a.ID), zap.String("email", a.Email))
	s.notify(EventCreated, a)

	return a, nil
}

func (s *AgentService) GetAgent(ctx context.Context, id int64) (*agent.Agent, error) {
	a, err := s.store.FindByID(ctx, id)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AgentService) ListAgents(ctx context.Context) (*agent.AgentListResponse, error) {
	agents, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return &agent.AgentListResponse{Count: len(agents), Agents: agents}, nil
}

// UpdateAgent applies the non-nil fields of req.
func (s *AgentService) UpdateAgent(ctx context.Context, id int64, req *agent.UpdateAgentRequest) (*agent.Agent, error) {
	a, err := s.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		a.Name = strings.TrimSpace(*req.Name)
	}
	if req.MobileNumber != nil {
		a.MobileNumber = strings.TrimSpace(*req.MobileNumber)
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != a.Email {
			exists, err := s.store.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check agent existence: %w", err)
			}
			if exists {
				return nil, ErrDuplicateEmail
			}
		}
		a.Email = email
	}
	if err := validate(a); err != nil {
		return nil, err
	}

	if req.Password != nil {
		if len(*req.Password) < 6 {
			return nil, fmt.Errorf("%w: password must be at least 6 characters", xerrors.ErrInvalidInput)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		a.PasswordHash = string(hash)
	}

	if err := s.store.Update(ctx, a); err != nil {
		switch {
		case errors.Is(err, xerrors.ErrDuplicateEntry):
			return nil, ErrDuplicateEmail
		case errors.Is(err, xerrors.ErrNotFound):
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}

	s.logger.Info("agent updated", zap.Int64("agent_id", a.ID), zap.Bool("active", a.IsActive))
	s.notify(EventUpdated, a)

	return a, nil
}

func (s *AgentService) DeleteAgent(ctx context.Context, id int64) error {
	a, err := s.GetAgent(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return ErrAgentNotFound
		}
		return fmt.Errorf("failed to delete agent: %w", err)
	}

	s.logger.Info("agent deleted", zap.Int64("agent_id", id))
	s.notify(EventDeleted, a)

	return nil
}

func (s *AgentService) notify(event string, a *agent.Agent) {
	if s.notifier != nil {
		s.notifier.BroadcastAgentEvent(event, a)
	}
}

func validate(a *agent.Agent) error {
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", xerrors.ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(a.Email); err != nil || addr.Address != a.Email {
		return fmt.Errorf("%w: please enter a valid email", xerrors.ErrInvalidInput)
	}
	if !mobilePattern.MatchString(a.MobileNumber) {
		return fmt.Errorf("%w: mobile number must include country code, e.g. +254712345678", xerrors.ErrInvalidInput)
	}
	return nil
}
