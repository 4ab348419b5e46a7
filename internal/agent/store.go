// Package agent persists named assistant profiles. Agents are stored
// and managed over the API but the chat turn does not consult them yet.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragvault/ragvault/internal/log"
)

// ErrNotFound is returned when no agent exists with the given id.
var ErrNotFound = errors.New("agent not found")

// Agent is an assistant profile, optionally scoped to a vault.
type Agent struct {
	AgentID      string    `json:"agentId"`
	Name         string    `json:"name"`
	VaultID      string    `json:"vaultId,omitempty"`
	SystemPrompt string    `json:"systemPrompt,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store provides agent persistence over Postgres.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

func NewStore(pool *pgxpool.Pool, logger log.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// Create inserts a new agent and returns it with a generated id.
func (s *Store) Create(ctx context.Context, name, vaultID, systemPrompt string) (*Agent, error) {
	agent := &Agent{
		AgentID:      uuid.NewString(),
		Name:         name,
		VaultID:      vaultID,
		SystemPrompt: systemPrompt,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO agents (agent_id, name, vault_id, system_prompt)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING created_at`,
		agent.AgentID, agent.Name, agent.VaultID, agent.SystemPrompt,
	).Scan(&agent.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	s.logger.Info("agent created", "agent_id", agent.AgentID, "name", name)
	return agent, nil
}

// Get returns one agent by id.
func (s *Store) Get(ctx context.Context, agentID string) (*Agent, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT agent_id, name, vault_id, system_prompt, created_at
		FROM agents WHERE agent_id = $1`, agentID)
	agent, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting agent %s: %w", agentID, err)
	}
	return agent, nil
}

// List returns agents newest first. A non-empty vaultID filters to one
// vault.
func (s *Store) List(ctx context.Context, vaultID string) ([]Agent, error) {
	query := `
		SELECT agent_id, name, vault_id, system_prompt, created_at
		FROM agents`
	args := []any{}
	if vaultID != "" {
		query += ` WHERE vault_id = $1`
		args = append(args, vaultID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		agents = append(agents, *agent)
	}
	return agents, rows.Err()
}

// Delete removes an agent. Returns ErrNotFound when no row matched.
func (s *Store) Delete(ctx context.Context, agentID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE agent_id = $1`, agentID)
	if err != nil {
		return fmt.Errorf("deleting agent %s: %w", agentID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.logger.Info("agent deleted", "agent_id", agentID)
	return nil
}

func scanAgent(row pgx.Row) (*Agent, error) {
	var (
		agent   Agent
		vaultID *string
	)
	if err := row.Scan(&agent.AgentID, &agent.Name, &vaultID,
		&agent.SystemPrompt, &agent.CreatedAt); err != nil {
		return nil, err
	}
	if vaultID != nil {
		agent.VaultID = *vaultID
	}
	return &agent, nil
}
