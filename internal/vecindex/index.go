// Package vecindex stores and searches document chunk embeddings in
// the pgvector-backed chunks table. It performs chunking, batched
// embedding, and cosine-distance retrieval.
package vecindex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	"github.com/ragvault/ragvault/internal/chat"
	"github.com/ragvault/ragvault/internal/log"
)

// embedConcurrency bounds parallel embedding calls during ingestion so
// a large document does not flood the provider.
const embedConcurrency = 4

// Embedder produces a vector for a single text. Satisfied by the
// gemini and ollama adapters.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index writes chunk embeddings to Postgres and answers similarity
// queries over them.
type Index struct {
	pool     *pgxpool.Pool
	embedder Embedder
	logger   log.Logger
}

func New(pool *pgxpool.Pool, embedder Embedder, logger log.Logger) *Index {
	return &Index{pool: pool, embedder: embedder, logger: logger}
}

// Insert chunks the text, embeds every chunk, and stores the vectors.
// All chunks are written in one transaction so a failed ingestion
// leaves no partial rows behind.
func (ix *Index) Insert(ctx context.Context, documentID, text string, metadata map[string]string) error {
	chunks := splitText(text)
	if len(chunks) == 0 {
		return fmt.Errorf("document %s: no indexable content", documentID)
	}

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			vec, err := ix.embedder.Embed(gctx, chunk)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal chunk metadata: %w", err)
	}
	vaultID := metadata["vault_id"]

	tx, err := ix.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin chunk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO chunks (document_id, vault_id, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5)`
	for i, chunk := range chunks {
		if _, err := tx.Exec(ctx, insert,
			documentID, vaultID, chunk, pgvector.NewVector(vectors[i]), meta,
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunk insert: %w", err)
	}

	ix.logger.Debug("indexed document",
		"document_id", documentID, "chunks", len(chunks))
	return nil
}

// Delete removes every chunk of a document. Deleting a document with
// no chunks is not an error.
func (ix *Index) Delete(ctx context.Context, documentID string) error {
	tag, err := ix.pool.Exec(ctx,
		`DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("delete chunks for %s: %w", documentID, err)
	}
	ix.logger.Debug("removed document vectors",
		"document_id", documentID, "chunks", tag.RowsAffected())
	return nil
}

// Query returns the k chunks nearest to the embedding by cosine
// distance, scored as similarity in [0, 1]. An empty vaultID searches
// every vault.
func (ix *Index) Query(ctx context.Context, embedding []float32, k int, vaultID string) ([]chat.Chunk, error) {
	query := `
		SELECT content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM chunks`
	args := []any{pgvector.NewVector(embedding)}
	if vaultID != "" {
		query += ` WHERE vault_id = $2`
		args = append(args, vaultID)
	}
	query += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, k)

	rows, err := ix.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var results []chat.Chunk
	for rows.Next() {
		var (
			content string
			meta    []byte
			score   float64
		)
		if err := rows.Scan(&content, &meta, &score); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunk := chat.Chunk{Content: content, Score: float32(score)}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
		}
		results = append(results, chunk)
	}
	return results, rows.Err()
}
