package retriever

import (
	"context"
	"testing"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, st *store.MemoryStore) {
	t.Helper()

	chunks := []entity.Chunk{
		{ID: "a1", Content: "sky", Meta: entity.ChunkMeta{SessionID: "a", Filename: "f", Page: 1}, Embedding: []float32{1, 0, 0}},
		{ID: "a2", Content: "sea", Meta: entity.ChunkMeta{SessionID: "a", Filename: "f", Page: 2}, Embedding: []float32{0.9, 0.1, 0}},
		{ID: "a3", Content: "sun", Meta: entity.ChunkMeta{SessionID: "a", Filename: "f", Page: 3}, Embedding: []float32{0.5, 0.5, 0}},
		{ID: "a4", Content: "mud", Meta: entity.ChunkMeta{SessionID: "a", Filename: "f", Page: 4}, Embedding: []float32{0, 0, 1}},
		{ID: "b1", Content: "other", Meta: entity.ChunkMeta{SessionID: "b", Filename: "g", Page: 1}, Embedding: []float32{1, 0, 0}},
	}
	_, err := st.Write(context.Background(), chunks)
	require.NoError(t, err)
}

func TestRetrieveTopK(t *testing.T) {
	st := store.NewMemoryStore(0, 0)
	seed(t, st)

	got, err := New(st, 3).Retrieve(context.Background(), []float32{1, 0, 0}, "a")
	require.NoError(t, err)
	require.Len(t, got, 3)

	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids)
	for _, ch := range got {
		assert.Equal(t, "a", ch.Meta.SessionID)
	}
}

func TestRetrieveUnknownSession(t *testing.T) {
	st := store.NewMemoryStore(0, 0)
	seed(t, st)

	got, err := New(st, 3).Retrieve(context.Background(), []float32{1, 0, 0}, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveRejectsBadInput(t *testing.T) {
	r := New(store.NewMemoryStore(0, 0), 3)

	_, err := r.Retrieve(context.Background(), []float32{1}, "")
	assert.ErrorIs(t, err, entity.ErrEmptySessionID)

	_, err = r.Retrieve(context.Background(), nil, "a")
	assert.ErrorIs(t, err, entity.ErrEmptyEmbedding)
}
