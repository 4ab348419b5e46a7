package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const vaultCols = "vault_id, name, description, created_at, updated_at"

// Registry manages vaults backed by PostgreSQL.
//
// Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRegistry creates a Registry over the given pool.
func NewRegistry(pool *pgxpool.Pool, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{pool: pool, logger: logger}
}

// Create inserts a new vault with a generated identifier.
// Returns ErrAlreadyExists if a vault with the same name exists,
// compared case-insensitively.
func (r *Registry) Create(ctx context.Context, name, description string) (*Vault, error) {
	id := uuid.NewString()

	var v Vault
	var desc *string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO vaults (vault_id, name, description)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING `+vaultCols,
		id, name, description,
	).Scan(&v.ID, &v.Name, &desc, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%w: name %q", ErrAlreadyExists, name)
		}
		return nil, fmt.Errorf("creating vault %q: %w", name, err)
	}
	if desc != nil {
		v.Description = *desc
	}

	r.logger.Info("vault created", "vault_id", v.ID, "name", v.Name)
	return &v, nil
}

// Get retrieves a vault by id. Returns ErrNotFound on miss.
func (r *Registry) Get(ctx context.Context, vaultID string) (*Vault, error) {
	return r.scanOne(ctx, `SELECT `+vaultCols+` FROM vaults WHERE vault_id = $1`, vaultID)
}

// GetByName retrieves a vault by name, ignoring case.
// Returns ErrNotFound on miss.
func (r *Registry) GetByName(ctx context.Context, name string) (*Vault, error) {
	return r.scanOne(ctx, `SELECT `+vaultCols+` FROM vaults WHERE LOWER(name) = LOWER($1)`, name)
}

// List returns all vaults, newest first.
func (r *Registry) List(ctx context.Context) ([]*Vault, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+vaultCols+` FROM vaults ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing vaults: %w", err)
	}
	defer rows.Close()

	var vaults []*Vault
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		vaults = append(vaults, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing vaults: %w", err)
	}
	return vaults, nil
}

// CountDocuments returns the number of documents referencing the vault.
func (r *Registry) CountDocuments(ctx context.Context, vaultID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE vault_id = $1`, vaultID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents for vault %s: %w", vaultID, err)
	}
	return count, nil
}

// Delete removes a vault. The foreign key cascade removes the vault's
// document metadata rows; chunk embeddings in the vector index are left
// behind (no reconciliation process exists for them).
// Returns ErrNotFound if the vault does not exist.
func (r *Registry) Delete(ctx context.Context, vaultID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vaults WHERE vault_id = $1`, vaultID)
	if err != nil {
		return fmt.Errorf("deleting vault %s: %w", vaultID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, vaultID)
	}

	r.logger.Info("vault deleted", "vault_id", vaultID)
	return nil
}

// ValidateExists returns ErrNotFound if the vault does not exist.
func (r *Registry) ValidateExists(ctx context.Context, vaultID string) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM vaults WHERE vault_id = $1)`, vaultID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking vault %s: %w", vaultID, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, vaultID)
	}
	return nil
}

func (r *Registry) scanOne(ctx context.Context, query, arg string) (*Vault, error) {
	v, err := scanVault(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching vault: %w", err)
	}
	return v, nil
}

func scanVault(row pgx.Row) (*Vault, error) {
	var v Vault
	var desc *string
	if err := row.Scan(&v.ID, &v.Name, &desc, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if desc != nil {
		v.Description = *desc
	}
	return &v, nil
}
