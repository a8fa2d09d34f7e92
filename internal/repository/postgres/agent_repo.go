// internal/repository/postgres/agent_repo.go
package postgres

import (
	"context"
	"fmt"

	"agentlist-service/internal/domain/agent"
	xerrors "agentlist-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const agentColumns = `id, name, email, mobile_number, password_hash, is_active, created_at, updated_at`

type AgentRepository struct {
	db DBTX
}

func NewAgentRepository(db DBTX) *AgentRepository {
	return &AgentRepository{db: db}
}

func scanAgent(row pgx.Row) (*agent.Agent, error) {
	var a agent.Agent
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.MobileNumber, &a.PasswordHash,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new agent and fills in its id and timestamps.
func (r *AgentRepository) Create(ctx context.Context, a *agent.Agent) error {
	query := `
		INSERT INTO agents (name, email, mobile_number, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		a.Name, a.Email, a.MobileNumber, a.PasswordHash, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if mapped := mapWriteError(err); mapped == xerrors.ErrDuplicateEntry {
			return mapped
		}
		return fmt.Errorf("failed to create agent: %w", err)
	}

	return nil
}

// FindByID retrieves an agent by ID
func (r *AgentRepository) FindByID(ctx context.Context, id int64) (*agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`

	a, err := scanAgent(r.db.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find agent: %w", err)
	}

	return a, nil
}

// FindByEmail retrieves an agent by email, case-insensitively
func (r *AgentRepository) FindByEmail(ctx context.Context, email string) (*agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE LOWER(email) = LOWER($1)`

	a, err := scanAgent(r.db.QueryRow(ctx, query, email))
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find agent: %w", err)
	}

	return a, nil
}

func (r *AgentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM agents WHERE LOWER(email) = LOWER($1))`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check agent email: %w", err)
	}
	return exists, nil
}

// List returns every agent, newest first.
func (r *AgentRepository) List(ctx context.Context) ([]agent.Agent, error) {
	return r.list(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY created_at DESC, id DESC`)
}

// ListActive returns the agents eligible for distribution in stable creation
// order. The distributor relies on this order being the same on every call.
func (r *AgentRepository) ListActive(ctx context.Context) ([]agent.Agent, error) {
	return r.list(ctx, `SELECT `+agentColumns+` FROM agents WHERE is_active = TRUE ORDER BY created_at ASC, id ASC`)
}

func (r *AgentRepository) list(ctx context.Context, query string) ([]agent.Agent, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	agents := []agent.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agents: %w", err)
	}

	return agents, nil
}

// Update writes every mutable column of a.
func (r *AgentRepository) Update(ctx context.Context, a *agent.Agent) error {
	query := `
		UPDATE agents
		SET name = $1, email = $2, mobile_number = $3, password_hash = $4,
		    is_active = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		a.Name, a.Email, a.MobileNumber, a.PasswordHash, a.IsActive, a.ID,
	).Scan(&a.UpdatedAt)
	if isNoRows(err) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		if mapped := mapWriteError(err); mapped == xerrors.ErrDuplicateEntry {
			return mapped
		}
		return fmt.Errorf("failed to update agent: %w", err)
	}

	return nil
}

// Delete removes an agent. Records already distributed to it keep their
// agent name snapshot.
func (r *AgentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
