package document_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragvault/ragvault/internal/document"
	"github.com/ragvault/ragvault/internal/log"
	"github.com/ragvault/ragvault/internal/testutil"
	"github.com/ragvault/ragvault/internal/vecindex"
)

func setupPipeline(t *testing.T) (*document.Pipeline, *testutil.TestDB) {
	t.Helper()
	tdb := testutil.SetupTestDB(t)
	index := vecindex.New(tdb.Pool, testutil.NewMockEmbedder(768), log.NewNop())
	return document.NewPipeline(tdb.Pool, index, log.NewNop()), tdb
}

func TestPipeline_IngestLifecycle(t *testing.T) {
	pipeline, tdb := setupPipeline(t)
	ctx := context.Background()

	_, err := tdb.Pool.Exec(ctx,
		`INSERT INTO vaults (vault_id, name) VALUES ('v1', 'research')`)
	require.NoError(t, err)

	documentID, err := pipeline.Ingest(ctx, document.IngestRequest{
		Text:     "The observatory sits above the cloud layer on Mount Hesper.",
		Title:    "observatory",
		Source:   "field-notes.md",
		VaultID:  "v1",
		Metadata: map[string]string{"author": "m.ruiz"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, documentID)

	// Metadata row persisted.
	info, err := pipeline.GetByID(ctx, documentID)
	require.NoError(t, err)
	assert.Equal(t, "observatory", info.Title)
	assert.Equal(t, "field-notes.md", info.Source)
	assert.Equal(t, "v1", info.VaultID)
	assert.Equal(t, "m.ruiz", info.Metadata["author"])

	// Chunks persisted with attribution metadata.
	var chunkCount int
	require.NoError(t, tdb.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID).Scan(&chunkCount))
	assert.Greater(t, chunkCount, 0)

	// Listing scoped to the vault finds it.
	docs, err := pipeline.ListAll(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, documentID, docs[0].ID)

	// Delete removes the row and the vectors.
	require.NoError(t, pipeline.Delete(ctx, documentID))
	_, err = pipeline.GetByID(ctx, documentID)
	require.ErrorIs(t, err, document.ErrNotFound)
	require.NoError(t, tdb.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID).Scan(&chunkCount))
	assert.Zero(t, chunkCount)
}

func TestPipeline_DeleteMissing(t *testing.T) {
	pipeline, _ := setupPipeline(t)

	err := pipeline.Delete(context.Background(), "no-such-document")
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestPipeline_ListAllUnscoped(t *testing.T) {
	pipeline, tdb := setupPipeline(t)
	ctx := context.Background()

	_, err := tdb.Pool.Exec(ctx,
		`INSERT INTO vaults (vault_id, name) VALUES ('v1', 'one'), ('v2', 'two')`)
	require.NoError(t, err)

	_, err = pipeline.Ingest(ctx, document.IngestRequest{Text: "text in vault one", VaultID: "v1"})
	require.NoError(t, err)
	_, err = pipeline.Ingest(ctx, document.IngestRequest{Text: "text in vault two", VaultID: "v2"})
	require.NoError(t, err)
	_, err = pipeline.Ingest(ctx, document.IngestRequest{Text: "text in no vault"})
	require.NoError(t, err)

	all, err := pipeline.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	scoped, err := pipeline.ListAll(ctx, "v2")
	require.NoError(t, err)
	assert.Len(t, scoped, 1)
}
