package vecindex_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragvault/ragvault/internal/log"
	"github.com/ragvault/ragvault/internal/testutil"
	"github.com/ragvault/ragvault/internal/vecindex"
)

func setupIndex(t *testing.T) (*vecindex.Index, *testutil.MockEmbedder, *testutil.TestDB) {
	t.Helper()
	tdb := testutil.SetupTestDB(t)
	embedder := testutil.NewMockEmbedder(768)
	return vecindex.New(tdb.Pool, embedder, log.NewNop()), embedder, tdb
}

func TestIndex_InsertAndQuery(t *testing.T) {
	ix, embedder, _ := setupIndex(t)
	ctx := context.Background()

	meta := map[string]string{"document_id": "doc-1", "title": "transit"}
	require.NoError(t, ix.Insert(ctx, "doc-1",
		"The ferry to Zeta City departs every morning at six.", meta))
	require.NoError(t, ix.Insert(ctx, "doc-2",
		"Sourdough bread needs a long cold fermentation.",
		map[string]string{"document_id": "doc-2", "title": "baking"}))

	queryVec, err := embedder.Embed(ctx, "when does the ferry to Zeta City depart")
	require.NoError(t, err)

	chunks, err := ix.Query(ctx, queryVec, 2, "")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// The ferry chunk shares far more tokens with the query.
	assert.Contains(t, chunks[0].Content, "ferry")
	assert.Equal(t, "doc-1", chunks[0].Metadata["document_id"])
	assert.Greater(t, chunks[0].Score, chunks[1].Score)
}

func TestIndex_QueryRespectsK(t *testing.T) {
	ix, embedder, _ := setupIndex(t)
	ctx := context.Background()

	for _, doc := range []struct{ id, text string }{
		{"a", "alpha topic text"},
		{"b", "beta topic text"},
		{"c", "gamma topic text"},
	} {
		require.NoError(t, ix.Insert(ctx, doc.id, doc.text,
			map[string]string{"document_id": doc.id}))
	}

	vec, err := embedder.Embed(ctx, "topic text")
	require.NoError(t, err)

	chunks, err := ix.Query(ctx, vec, 1, "")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestIndex_VaultFilter(t *testing.T) {
	ix, embedder, _ := setupIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Insert(ctx, "doc-1", "shared subject matter here",
		map[string]string{"document_id": "doc-1", "vault_id": "v1"}))
	require.NoError(t, ix.Insert(ctx, "doc-2", "shared subject matter there",
		map[string]string{"document_id": "doc-2", "vault_id": "v2"}))

	vec, err := embedder.Embed(ctx, "shared subject matter")
	require.NoError(t, err)

	scoped, err := ix.Query(ctx, vec, 10, "v1")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "doc-1", scoped[0].Metadata["document_id"])

	all, err := ix.Query(ctx, vec, 10, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIndex_DeleteIdempotent(t *testing.T) {
	ix, embedder, _ := setupIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Insert(ctx, "doc-1", "content to remove",
		map[string]string{"document_id": "doc-1"}))

	require.NoError(t, ix.Delete(ctx, "doc-1"))
	// Deleting again is not an error.
	require.NoError(t, ix.Delete(ctx, "doc-1"))

	vec, err := embedder.Embed(ctx, "content to remove")
	require.NoError(t, err)
	chunks, err := ix.Query(ctx, vec, 10, "")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestIndex_InsertRejectsEmptyText(t *testing.T) {
	ix, _, _ := setupIndex(t)

	err := ix.Insert(context.Background(), "doc-1", "   \n\n  ", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no indexable content")
}

func TestIndex_EmbedFailureLeavesNoRows(t *testing.T) {
	ix, embedder, tdb := setupIndex(t)
	ctx := context.Background()

	embedder.FailWith(assert.AnError)
	err := ix.Insert(ctx, "doc-1", "some content", map[string]string{"document_id": "doc-1"})
	require.Error(t, err)

	var count int
	require.NoError(t, tdb.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = 'doc-1'`).Scan(&count))
	assert.Zero(t, count)
}
