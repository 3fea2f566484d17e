// Package rerank orders retrieved chunks by a cross-encoder relevance score.
// The ranker is chosen once at start-up: a cross-encoder when the model
// answers its health probe, otherwise a no-op ranker that keeps retrieval
// order.
package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docqa-backend/internal/entity"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Ranker interface {
	Rerank(ctx context.Context, query string, candidates []entity.Chunk) ([]entity.Chunk, error)
	Outcome() entity.Outcome
}

// Scorer is the cross-encoder model contract
type Scorer interface {
	Ping(ctx context.Context) error
	Score(ctx context.Context, query string, texts []string) ([]entity.RerankResult, error)
}

// Init probes the scorer with exponential backoff and returns the ranker to
// use for the rest of the process lifetime.
func Init(ctx context.Context, scorer Scorer, retryCfg pkgRetry.RetryConfig, maxCandidates, topK int) Ranker {
	opts := append(retryCfg.ToRetryOptions(),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "reranker probe failed, retrying",
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)

	err := retry.Do(func() error {
		attemptCtx := ctx
		if retryCfg.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, retryCfg.Timeout)
			defer cancel()
		}
		return scorer.Ping(attemptCtx)
	}, opts...)
	if err != nil {
		ctxzap.Error(ctx, "reranker unavailable, falling back to retrieval order", zap.Error(err))
		return NewNoop(topK)
	}

	ctxzap.Info(ctx, "reranker initialised",
		zap.Int("max_candidates", maxCandidates),
		zap.Int("top_k", topK),
	)
	return NewCrossEncoder(scorer, maxCandidates, topK)
}

// CrossEncoder scores at most maxCandidates chunks and keeps the best topK
type CrossEncoder struct {
	scorer        Scorer
	maxCandidates int
	topK          int
}

func NewCrossEncoder(scorer Scorer, maxCandidates, topK int) *CrossEncoder {
	return &CrossEncoder{
		scorer:        scorer,
		maxCandidates: maxCandidates,
		topK:          topK,
	}
}

func (c *CrossEncoder) Outcome() entity.Outcome {
	return entity.OutcomeOK
}

func (c *CrossEncoder) Rerank(ctx context.Context, query string, candidates []entity.Chunk) ([]entity.Chunk, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > c.maxCandidates {
		candidates = candidates[:c.maxCandidates]
	}

	texts := make([]string, len(candidates))
	for i, ch := range candidates {
		texts[i] = ch.Content
	}

	results, err := c.scorer.Score(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	scored := make([]entity.Chunk, 0, len(results))
	seen := make(map[int]bool, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(candidates) || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		ch := candidates[r.Index]
		ch.Score = r.Score
		scored = append(scored, ch)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > c.topK {
		scored = scored[:c.topK]
	}
	return scored, nil
}

// Noop keeps retrieval order and truncates to topK
type Noop struct {
	topK int
}

func NewNoop(topK int) *Noop {
	return &Noop{topK: topK}
}

func (n *Noop) Outcome() entity.Outcome {
	return entity.OutcomeDegraded
}

func (n *Noop) Rerank(_ context.Context, _ string, candidates []entity.Chunk) ([]entity.Chunk, error) {
	if len(candidates) > n.topK {
		candidates = candidates[:n.topK]
	}
	return candidates, nil
}
