package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/futig/docqa-backend/internal/chunker"
	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/generator"
	"github.com/futig/docqa-backend/internal/indexer"
	"github.com/futig/docqa-backend/internal/integration/embedding"
	"github.com/futig/docqa-backend/internal/integration/llm"
	"github.com/futig/docqa-backend/internal/rerank"
	"github.com/futig/docqa-backend/internal/retriever"
	"github.com/futig/docqa-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return embedding.HashEmbedding(text), nil
}

type panickingGenerator struct{}

func (panickingGenerator) Generate(context.Context, string, []entity.Chunk) (entity.Generation, error) {
	panic("nil model handle")
}

type failingRanker struct{}

func (failingRanker) Rerank(context.Context, string, []entity.Chunk) ([]entity.Chunk, error) {
	return nil, errors.New("reranker timeout")
}

func (failingRanker) Outcome() entity.Outcome { return entity.OutcomeOK }

type fixture struct {
	store    *store.MemoryStore
	embedder *countingEmbedder
}

func (f *fixture) ingest(t *testing.T, sessionID, filename string, pages ...string) {
	t.Helper()

	in := make([]entity.Page, len(pages))
	for i, p := range pages {
		in[i] = entity.Page{SessionID: sessionID, Filename: filename, Number: i + 1, Text: p}
	}
	ix := indexer.New(embedding.NewMockConnector(zap.NewNop()), f.store, 8)
	report := ix.Index(context.Background(), chunker.New(300, 30).Split(in))
	require.Equal(t, entity.OutcomeOK, report.Outcome)
}

func newFixture() *fixture {
	return &fixture{store: store.NewMemoryStore(0, 0), embedder: &countingEmbedder{}}
}

func (f *fixture) usecase(ranker Ranker, gen Generator) *QueryUsecase {
	if ranker == nil {
		ranker = rerank.NewNoop(3)
	}
	if gen == nil {
		gen = generator.New(llm.NewMockConnector(zap.NewNop()), config.DefaultMessages().NoResponse)
	}
	return NewUsecase(f.embedder, retriever.New(f.store, 3), ranker, gen, config.DefaultMessages(), 200, zap.NewNop())
}

func TestAskAnswersFromSession(t *testing.T) {
	f := newFixture()
	f.ingest(t, "s1", "hello.txt", "The sky is blue.")

	answer := f.usecase(nil, nil).Ask(context.Background(), "s1", "What colour is the sky?")

	assert.Equal(t, entity.AnswerStatusOK, answer.Status)
	assert.Contains(t, strings.ToLower(answer.Text), "blue")
	assert.Equal(t, []entity.Source{{Filename: "hello.txt", Page: 1, Snippet: "The sky is blue."}}, answer.Sources)
	assert.Equal(t, entity.OutcomeDegraded, answer.Rerank)
}

func TestAskEmptyQuestion(t *testing.T) {
	f := newFixture()

	for _, q := range []string{"", "   ", "\n\t"} {
		answer := f.usecase(nil, nil).Ask(context.Background(), "s1", q)
		assert.Equal(t, "Please provide a non-empty question.", answer.Text)
		assert.Equal(t, entity.AnswerStatusEmptyQuestion, answer.Status)
		assert.Empty(t, answer.Sources)
	}
	assert.Zero(t, f.embedder.calls)
}

func TestAskEmbedFailure(t *testing.T) {
	f := newFixture()
	f.embedder.err = errors.New("embedding server down")

	answer := f.usecase(nil, nil).Ask(context.Background(), "s1", "anything")

	assert.Equal(t, "Failed to process your question.", answer.Text)
	assert.Equal(t, entity.AnswerStatusEmbedFailed, answer.Status)
	assert.Empty(t, answer.Sources)
}

func TestAskSessionIsolation(t *testing.T) {
	f := newFixture()
	f.ingest(t, "a", "secret.txt", "The launch code is 1234.")

	answer := f.usecase(nil, nil).Ask(context.Background(), "b", "What is the launch code?")

	assert.Equal(t, "No documents found for this session. Please upload a file first.", answer.Text)
	assert.Equal(t, entity.AnswerStatusNoDocuments, answer.Status)
	assert.Empty(t, answer.Sources)
}

func TestAskAtMostThreeSources(t *testing.T) {
	f := newFixture()
	f.ingest(t, "s1", "many.pdf", "alpha sky", "beta sky", "gamma sky", "delta sky", "epsilon sky")

	answer := f.usecase(nil, nil).Ask(context.Background(), "s1", "sky")

	assert.Equal(t, entity.AnswerStatusOK, answer.Status)
	assert.Len(t, answer.Sources, 3)
}

func TestAskFaultsGiveGenericAnswer(t *testing.T) {
	tests := []struct {
		name   string
		ranker Ranker
		gen    Generator
	}{
		{name: "rerank error", ranker: failingRanker{}},
		{name: "generator panic", gen: panickingGenerator{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.ingest(t, "s1", "hello.txt", "The sky is blue.")

			answer := f.usecase(tt.ranker, tt.gen).Ask(context.Background(), "s1", "sky?")

			assert.Equal(t, "Sorry, I encountered an error processing your request.", answer.Text)
			assert.Equal(t, entity.AnswerStatusError, answer.Status)
			assert.Empty(t, answer.Sources)
		})
	}
}

func TestSnippet(t *testing.T) {
	short := strings.Repeat("a", 200)
	assert.Equal(t, short, Snippet(short, 200))

	long := strings.Repeat("b", 201)
	assert.Equal(t, strings.Repeat("b", 200)+"...", Snippet(long, 200))

	multi := strings.Repeat("é", 201)
	assert.Equal(t, strings.Repeat("é", 200)+"...", Snippet(multi, 200))
}
