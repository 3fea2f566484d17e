package llm

import (
	"context"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector answers with the context sentence that shares the most words
// with the question.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) GenerateContent(ctx context.Context, req *entity.GeminiGenerateRequest) (*entity.GeminiGenerateResponse, error) {
	var prompt string
	if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
		prompt = req.Contents[0].Parts[0].Text
	}

	ctxzap.Info(ctx, "[MOCK] generating answer via LLM", zap.Int("prompt_length", len(prompt)))

	answer := bestSentence(splitPrompt(prompt))
	return &entity.GeminiGenerateResponse{
		Candidates: []entity.GeminiCandidate{{
			Content:      entity.GeminiContent{Role: "model", Parts: []entity.GeminiPart{{Text: answer}}},
			FinishReason: "STOP",
		}},
	}, nil
}

type promptParts struct {
	context  string
	question string
}

func splitPrompt(prompt string) promptParts {
	body := strings.TrimPrefix(prompt, "Context:\n")
	ctxText, rest, found := strings.Cut(body, "\n\nQuestion: ")
	if !found {
		return promptParts{context: body}
	}
	question, _, _ := strings.Cut(rest, "\nAnswer:")
	return promptParts{context: ctxText, question: question}
}

func bestSentence(p promptParts) string {
	words := strings.Fields(strings.ToLower(p.question))
	best, bestScore := "", -1
	for _, s := range strings.FieldsFunc(p.context, func(r rune) bool { return r == '.' || r == '\n' }) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		score := 0
		for _, w := range words {
			if strings.Contains(lower, strings.Trim(w, "?.,!")) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	if best == "" {
		return ""
	}
	return best + "."
}
