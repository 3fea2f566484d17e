package query

import (
	"context"
	"strings"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const snippetSuffix = "..."

// QueryUsecase answers questions from the documents of one session
type QueryUsecase struct {
	embedder      QueryEmbedder
	retriever     Retriever
	ranker        Ranker
	generator     Generator
	messages      config.Messages
	snippetLength int
	logger        *zap.Logger
}

// NewUsecase creates a new query use case
func NewUsecase(
	embedder QueryEmbedder,
	retriever Retriever,
	ranker Ranker,
	generator Generator,
	messages config.Messages,
	snippetLength int,
	logger *zap.Logger,
) *QueryUsecase {
	return &QueryUsecase{
		embedder:      embedder,
		retriever:     retriever,
		ranker:        ranker,
		generator:     generator,
		messages:      messages,
		snippetLength: snippetLength,
		logger:        logger,
	}
}

// Ask always produces an answer. Faults are logged and reported through the
// answer status with a generic message and no sources.
func (uc *QueryUsecase) Ask(ctx context.Context, sessionID, question string) (answer entity.Answer) {
	ctx = logger.WithAction(ctx, "ask")
	ctx = logger.WithSession(ctx, sessionID)

	defer func() {
		if r := recover(); r != nil {
			ctxzap.Error(ctx, "query panicked", zap.Any("panic", r), zap.Stack("stack"))
			answer = uc.errorAnswer()
		}
	}()

	if strings.TrimSpace(question) == "" {
		return entity.Answer{
			Text:    uc.messages.EmptyQuestion,
			Sources: []entity.Source{},
			Status:  entity.AnswerStatusEmptyQuestion,
		}
	}

	queryEmbedding, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil || len(queryEmbedding) == 0 {
		ctxzap.Error(ctx, "failed to embed question", zap.Error(err))
		return entity.Answer{
			Text:    uc.messages.EmbedFailed,
			Sources: []entity.Source{},
			Status:  entity.AnswerStatusEmbedFailed,
		}
	}

	retrieved, err := uc.retriever.Retrieve(ctx, queryEmbedding, sessionID)
	if err != nil {
		ctxzap.Error(ctx, "failed to retrieve documents", zap.Error(err))
		return uc.errorAnswer()
	}
	if len(retrieved) == 0 {
		return entity.Answer{
			Text:    uc.messages.NoDocuments,
			Sources: []entity.Source{},
			Status:  entity.AnswerStatusNoDocuments,
		}
	}

	ranked, err := uc.ranker.Rerank(ctx, question, retrieved)
	if err != nil {
		ctxzap.Error(ctx, "failed to rerank documents", zap.Error(err))
		return uc.errorAnswer()
	}

	generation, err := uc.generator.Generate(ctx, question, ranked)
	if err != nil {
		ctxzap.Error(ctx, "failed to generate answer", zap.Error(err))
		return uc.errorAnswer()
	}

	ctxzap.Info(ctx, "question answered",
		zap.Int("retrieved", len(retrieved)),
		zap.Int("context_chunks", len(ranked)),
		zap.String("rerank", string(uc.ranker.Outcome())),
		zap.String("generation", string(generation.Outcome)),
	)

	return entity.Answer{
		Text:       generation.Text,
		Sources:    uc.sources(ranked),
		Status:     entity.AnswerStatusOK,
		Rerank:     uc.ranker.Outcome(),
		Generation: generation.Outcome,
	}
}

func (uc *QueryUsecase) errorAnswer() entity.Answer {
	return entity.Answer{
		Text:    uc.messages.QueryError,
		Sources: []entity.Source{},
		Status:  entity.AnswerStatusError,
	}
}

func (uc *QueryUsecase) sources(chunks []entity.Chunk) []entity.Source {
	out := make([]entity.Source, len(chunks))
	for i, ch := range chunks {
		out[i] = entity.Source{
			Filename: ch.Meta.Filename,
			Page:     ch.Meta.Page,
			Snippet:  Snippet(ch.Content, uc.snippetLength),
		}
	}
	return out
}

// Snippet returns the first n characters of content, marked with "..." when
// anything was cut.
func Snippet(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n]) + snippetSuffix
}
