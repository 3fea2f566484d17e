package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const blockNone = "BLOCK_NONE"

var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

type LLMConnector interface {
	GenerateContent(ctx context.Context, req *entity.GeminiGenerateRequest) (*entity.GeminiGenerateResponse, error)
}

// Generator turns a question and its context chunks into an answer
type Generator struct {
	llm      LLMConnector
	fallback string
}

// New creates a generator. fallback is returned when the model produces no text.
func New(llm LLMConnector, fallback string) *Generator {
	return &Generator{
		llm:      llm,
		fallback: fallback,
	}
}

// BuildPrompt joins chunk contents with blank lines under a Context header
func BuildPrompt(question string, chunks []entity.Chunk) string {
	contents := make([]string, len(chunks))
	for i, ch := range chunks {
		contents[i] = ch.Content
	}

	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(contents, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

func (g *Generator) Generate(ctx context.Context, question string, chunks []entity.Chunk) (entity.Generation, error) {
	req := &entity.GeminiGenerateRequest{
		Contents: []entity.GeminiContent{{
			Role:  "user",
			Parts: []entity.GeminiPart{{Text: BuildPrompt(question, chunks)}},
		}},
		SafetySettings: safetySettings(),
	}

	resp, err := g.llm.GenerateContent(ctx, req)
	if err != nil {
		return entity.Generation{}, fmt.Errorf("generate answer: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		ctxzap.Warn(ctx, "model returned no text", zap.Int("candidates", len(resp.Candidates)))
		return entity.Generation{Text: g.fallback, Outcome: entity.OutcomeDegraded}, nil
	}

	return entity.Generation{Text: text, Outcome: entity.OutcomeOK}, nil
}

func safetySettings() []entity.GeminiSafetySetting {
	settings := make([]entity.GeminiSafetySetting, len(harmCategories))
	for i, c := range harmCategories {
		settings[i] = entity.GeminiSafetySetting{Category: c, Threshold: blockNone}
	}
	return settings
}
