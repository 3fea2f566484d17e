// Package ocr wraps an optical character recognition model behind a lazily
// initialised engine that filters recognised regions by confidence.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docqa-backend/internal/entity"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Recognizer is the OCR model contract. Recognize receives a PNG encoded
// image and returns its text regions in paragraph mode.
type Recognizer interface {
	Ping(ctx context.Context) error
	Recognize(ctx context.Context, pngImage []byte) ([]entity.OCRRegion, error)
}

// Engine is safe for concurrent use. The model is probed once, on first use;
// when that probe fails the engine stays unavailable for the process lifetime.
type Engine struct {
	client        Recognizer
	minConfidence float64
	retryCfg      pkgRetry.RetryConfig

	once    sync.Once
	initErr error
}

func NewEngine(client Recognizer, minConfidence float64, retryCfg pkgRetry.RetryConfig) *Engine {
	return &Engine{
		client:        client,
		minConfidence: minConfidence,
		retryCfg:      retryCfg,
	}
}

// Disabled returns an engine that is never available
func Disabled() *Engine {
	e := &Engine{}
	e.once.Do(func() {
		e.initErr = fmt.Errorf("%w: ocr disabled", entity.ErrModelUnavailable)
	})
	return e
}

// Available initialises the engine if needed and reports whether it can be used
func (e *Engine) Available(ctx context.Context) bool {
	return e.init(ctx) == nil
}

// Recognize returns the text of all regions whose confidence is above the
// threshold, one region per line.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := e.init(ctx); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	regions, err := e.client.Recognize(ctx, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	return JoinRegions(regions, e.minConfidence), nil
}

// JoinRegions keeps regions with confidence strictly above minConfidence and
// joins their text with newlines.
func JoinRegions(regions []entity.OCRRegion, minConfidence float64) string {
	lines := make([]string, 0, len(regions))
	for _, r := range regions {
		if r.Confidence > minConfidence {
			lines = append(lines, r.Text)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (e *Engine) init(ctx context.Context) error {
	e.once.Do(func() {
		if e.client == nil {
			e.initErr = fmt.Errorf("%w: no ocr client", entity.ErrModelUnavailable)
			return
		}

		// the probe outlives the request that triggered it
		probeCtx := context.WithoutCancel(ctx)
		opts := append(e.retryCfg.ToRetryOptions(),
			retry.Context(probeCtx),
			retry.OnRetry(func(n uint, err error) {
				ctxzap.Warn(ctx, "ocr engine probe failed, retrying",
					zap.Uint("attempt", n+1),
					zap.Error(err),
				)
			}),
		)

		err := retry.Do(func() error {
			attemptCtx := probeCtx
			if e.retryCfg.Timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(probeCtx, e.retryCfg.Timeout)
				defer cancel()
			}
			return e.client.Ping(attemptCtx)
		}, opts...)
		if err != nil {
			ctxzap.Error(ctx, "ocr engine unavailable, image text extraction disabled", zap.Error(err))
			e.initErr = fmt.Errorf("%w: %w", entity.ErrModelUnavailable, err)
			return
		}

		ctxzap.Info(ctx, "ocr engine initialised")
	})
	return e.initErr
}
