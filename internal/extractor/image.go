package extractor

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func (e *Extractor) extractImage(ctx context.Context, data []byte) entity.Extraction {
	if !e.ocr.Available(ctx) {
		ctxzap.Error(ctx, "ocr engine not available, skipping image")
		return entity.Extraction{Outcome: entity.OutcomeFailed}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		ctxzap.Error(ctx, "failed to decode image", zap.Error(err))
		return entity.Extraction{Outcome: entity.OutcomeFailed}
	}
	ctxzap.Debug(ctx, "running ocr on image", zap.String("format", format))

	text, err := e.ocr.Recognize(ctx, toRGB(img))
	if err != nil {
		ctxzap.Error(ctx, "image ocr failed", zap.Error(err))
		return entity.Extraction{Outcome: entity.OutcomeFailed}
	}

	if text == "" {
		return entity.Extraction{Outcome: entity.OutcomeOK}
	}
	return entity.Extraction{Pages: []string{text}, Outcome: entity.OutcomeOK}
}

// toRGB flattens any decoded image onto an opaque RGBA canvas
func toRGB(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}
