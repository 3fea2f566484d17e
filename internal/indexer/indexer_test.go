package indexer

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	calls   [][]string
	failOn  map[int]bool
	callNum int
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.callNum++
	f.calls = append(f.calls, texts)
	if f.failOn[f.callNum] {
		return nil, errors.New("model overloaded")
	}

	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

type fakeStore struct {
	chunks []entity.Chunk
}

func (s *fakeStore) Write(_ context.Context, chunks []entity.Chunk) (int, error) {
	s.chunks = append(s.chunks, chunks...)
	return len(chunks), nil
}

func makeChunks(n int) []entity.Chunk {
	out := make([]entity.Chunk, n)
	for i := range out {
		out[i] = entity.Chunk{
			ID:      "c" + strconv.Itoa(i),
			Content: "chunk " + strconv.Itoa(i),
			Meta:    entity.ChunkMeta{SessionID: "s1", Filename: "a.txt", Page: 1},
		}
	}
	return out
}

func TestIndexBatches(t *testing.T) {
	emb := &fakeEmbedder{}
	st := &fakeStore{}

	report := New(emb, st, 8).Index(context.Background(), makeChunks(20))

	assert.Equal(t, entity.IndexReport{Written: 20, Outcome: entity.OutcomeOK}, report)
	require.Len(t, emb.calls, 3)
	assert.Len(t, emb.calls[0], 8)
	assert.Len(t, emb.calls[1], 8)
	assert.Len(t, emb.calls[2], 4)

	require.Len(t, st.chunks, 20)
	for _, ch := range st.chunks {
		assert.NotEmpty(t, ch.Embedding)
	}
}

func TestIndexSkipsBlankChunks(t *testing.T) {
	emb := &fakeEmbedder{}
	st := &fakeStore{}

	chunks := makeChunks(2)
	chunks = append(chunks, entity.Chunk{ID: "blank", Content: " \n\t "})

	report := New(emb, st, 8).Index(context.Background(), chunks)

	assert.Equal(t, 2, report.Written)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, []string{"chunk 0", "chunk 1"}, emb.calls[0])
}

func TestIndexFailedBatchIsSkipped(t *testing.T) {
	emb := &fakeEmbedder{failOn: map[int]bool{2: true}}
	st := &fakeStore{}

	report := New(emb, st, 8).Index(context.Background(), makeChunks(20))

	assert.Equal(t, 12, report.Written)
	assert.Equal(t, 8, report.Skipped)
	assert.Equal(t, 1, report.FailedBatches)
	assert.Equal(t, entity.OutcomeDegraded, report.Outcome)
	assert.Len(t, st.chunks, 12)
}

func TestIndexAllBatchesFailed(t *testing.T) {
	emb := &fakeEmbedder{failOn: map[int]bool{1: true}}
	st := &fakeStore{}

	report := New(emb, st, 8).Index(context.Background(), makeChunks(3))

	assert.Zero(t, report.Written)
	assert.Equal(t, entity.OutcomeFailed, report.Outcome)
	assert.Empty(t, st.chunks)
}

func TestIndexNothingToDo(t *testing.T) {
	emb := &fakeEmbedder{}
	report := New(emb, &fakeStore{}, 8).Index(context.Background(), nil)

	assert.Equal(t, entity.IndexReport{Outcome: entity.OutcomeOK}, report)
	assert.Empty(t, emb.calls)
}
