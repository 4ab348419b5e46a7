// Package document implements the document ingestion pipeline.
//
// Ingestion delegates chunking, embedding, and vector persistence to a
// VectorIndex collaborator and keeps its own metadata rows in PostgreSQL.
// Vector insertion happens before the metadata write: a vector failure
// aborts ingestion cleanly, while a metadata failure after a successful
// vector insert leaves orphaned chunk entries (an acknowledged gap,
// tolerated because metadata rows are the authoritative record).
package document

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// IngestError wraps a failure in the ingestion pipeline with the id of
// the document that failed.
type IngestError struct {
	DocumentID string
	Err        error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest document %s: %v", e.DocumentID, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// Info is the persisted metadata of an ingested document.
type Info struct {
	ID        string            `json:"documentId"`
	Title     string            `json:"title,omitempty"`
	Source    string            `json:"source,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	VaultID   string            `json:"vaultId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// VectorIndex is the collaborator responsible for splitting text into
// chunks, embedding them, and persisting vector+metadata pairs keyed by
// document id. Delete is idempotent: removing an absent document is not
// an error.
type VectorIndex interface {
	Insert(ctx context.Context, documentID, text string, metadata map[string]string) error
	Delete(ctx context.Context, documentID string) error
}

// Chunk metadata keys written by the pipeline. The vector index stores
// these alongside each chunk so retrieval can attribute sources.
const (
	MetaDocumentID = "document_id"
	MetaTitle      = "title"
	MetaSource     = "source"
	MetaVaultID    = "vault_id"
)
