package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentCols = "id, title, source, metadata, vault_id, created_at, updated_at"

// Pipeline ingests raw text into the vector index and records document
// metadata in PostgreSQL.
//
// Pipeline is safe for concurrent use by multiple goroutines.
type Pipeline struct {
	pool   *pgxpool.Pool
	index  VectorIndex
	logger *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(pool *pgxpool.Pool, index VectorIndex, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{pool: pool, index: index, logger: logger}
}

// IngestRequest carries the inputs for one ingestion.
type IngestRequest struct {
	Text     string
	Title    string
	Source   string
	VaultID  string
	Metadata map[string]string
}

// Ingest indexes text in the vector index and persists a metadata row,
// returning the generated document id. All failures are wrapped in
// *IngestError carrying the id.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (string, error) {
	documentID := uuid.NewString()

	p.logger.Info("ingesting document",
		"document_id", documentID, "title", req.Title,
		"vault_id", req.VaultID, "text_length", len(req.Text))

	// Chunk-level metadata: caller-supplied pairs plus the identifying
	// fields retrieval needs for source attribution.
	chunkMeta := make(map[string]string, len(req.Metadata)+4)
	for k, v := range req.Metadata {
		chunkMeta[k] = v
	}
	chunkMeta[MetaDocumentID] = documentID
	if req.Title != "" {
		chunkMeta[MetaTitle] = req.Title
	}
	if req.Source != "" {
		chunkMeta[MetaSource] = req.Source
	}
	if req.VaultID != "" {
		chunkMeta[MetaVaultID] = req.VaultID
	}

	// Vector insertion first; if it fails the metadata row is never
	// written and ingestion aborts.
	if err := p.index.Insert(ctx, documentID, req.Text, chunkMeta); err != nil {
		return "", &IngestError{DocumentID: documentID, Err: fmt.Errorf("vector index insert: %w", err)}
	}

	metaJSON, err := json.Marshal(req.Metadata)
	if err != nil {
		return "", &IngestError{DocumentID: documentID, Err: fmt.Errorf("marshaling metadata: %w", err)}
	}
	if req.Metadata == nil {
		metaJSON = []byte("{}")
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO documents (id, title, source, metadata, vault_id)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''))`,
		documentID, req.Title, req.Source, metaJSON, req.VaultID,
	)
	if err != nil {
		// Chunks for documentID are now orphaned in the vector index.
		p.logger.Error("metadata write failed after vector insert",
			"document_id", documentID, "error", err)
		return "", &IngestError{DocumentID: documentID, Err: fmt.Errorf("persisting metadata: %w", err)}
	}

	p.logger.Info("document ingested", "document_id", documentID)
	return documentID, nil
}

// ListAll returns all documents, newest first. A non-empty vaultID
// restricts the result to one vault.
func (p *Pipeline) ListAll(ctx context.Context, vaultID string) ([]Info, error) {
	query := `SELECT ` + documentCols + ` FROM documents ORDER BY created_at DESC`
	args := []any{}
	if vaultID != "" {
		query = `SELECT ` + documentCols + ` FROM documents WHERE vault_id = $1 ORDER BY created_at DESC`
		args = append(args, vaultID)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Info, 0)
	for rows.Next() {
		info, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// GetByID retrieves one document's metadata. Returns ErrNotFound on miss.
func (p *Pipeline) GetByID(ctx context.Context, documentID string) (*Info, error) {
	info, err := scanDocument(p.pool.QueryRow(ctx,
		`SELECT `+documentCols+` FROM documents WHERE id = $1`, documentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", documentID, err)
	}
	return info, nil
}

// Delete removes a document's vector entries and its metadata row.
// Vector deletion is best-effort (absence in the index is tolerated);
// the metadata row is authoritative, and its absence yields ErrNotFound.
func (p *Pipeline) Delete(ctx context.Context, documentID string) error {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, documentID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking document %s: %w", documentID, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, documentID)
	}

	if err := p.index.Delete(ctx, documentID); err != nil {
		// Vector cleanup stays best-effort; the metadata delete below is
		// what makes the document gone.
		p.logger.Warn("vector index delete failed",
			"document_id", documentID, "error", err)
	}

	if _, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}

	p.logger.Info("document deleted", "document_id", documentID)
	return nil
}

func scanDocument(row pgx.Row) (*Info, error) {
	var info Info
	var title, source, vaultID *string
	var metaJSON []byte
	if err := row.Scan(&info.ID, &title, &source, &metaJSON, &vaultID, &info.CreatedAt, &info.UpdatedAt); err != nil {
		return nil, err
	}
	if title != nil {
		info.Title = *title
	}
	if source != nil {
		info.Source = *source
	}
	if vaultID != nil {
		info.VaultID = *vaultID
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &info.Metadata); err != nil {
			return nil, fmt.Errorf("parsing metadata for document %s: %w", info.ID, err)
		}
	}
	return &info, nil
}
