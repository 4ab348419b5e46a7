// Package vault implements the tenant boundary for document storage.
//
// A vault owns a set of documents. Vault names are unique
// case-insensitively, enforced by a unique index on LOWER(name).
// Deleting a vault cascades to its document metadata rows at the
// relational layer; chunk embeddings in the vector index are not cleaned
// up here (see the registry Delete doc comment).
package vault

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a vault does not exist.
	ErrNotFound = errors.New("vault not found")

	// ErrAlreadyExists is returned when a vault name collides,
	// ignoring case.
	ErrAlreadyExists = errors.New("vault already exists")
)

// Vault is a named multi-tenancy boundary owning documents.
type Vault struct {
	ID          string    `json:"vaultId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
