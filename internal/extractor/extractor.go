// Package extractor turns uploaded files into per-page text. PDF pages with
// too little native text and image files go through OCR.
package extractor

import (
	"context"
	"image"
	"path/filepath"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// OCR recognises text on a raster image
type OCR interface {
	Available(ctx context.Context) bool
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Rasterizer renders PDF pages to images
type Rasterizer interface {
	Open(data []byte) (RasterDocument, error)
}

type RasterDocument interface {
	// RenderPage renders the zero-based page at the given resolution
	RenderPage(index int, dpi float64) (image.Image, error)
	Close() error
}

type Config struct {
	MinNativeChars int
	RenderDPI      float64
}

type Extractor struct {
	ocr        OCR
	rasterizer Rasterizer
	cfg        Config
}

func New(ocr OCR, rasterizer Rasterizer, cfg Config) *Extractor {
	return &Extractor{
		ocr:        ocr,
		rasterizer: rasterizer,
		cfg:        cfg,
	}
}

// Kind picks the extraction path from the file extension, case-insensitively
func Kind(filename string) entity.SourceKind {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return entity.SourceKindPDF
	case imageExtensions[ext]:
		return entity.SourceKindImage
	case ext == ".docx":
		return entity.SourceKindDOCX
	default:
		return entity.SourceKindText
	}
}

// Extract never fails. Problems are logged and reflected in the outcome:
// an unreadable file yields no pages and a failed page yields "".
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) entity.Extraction {
	kind := Kind(filename)
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.String("filename", filename),
		zap.String("kind", string(kind)),
	))

	var res entity.Extraction
	switch kind {
	case entity.SourceKindPDF:
		res = e.extractPDF(ctx, data)
	case entity.SourceKindImage:
		res = e.extractImage(ctx, data)
	case entity.SourceKindDOCX:
		res = extractDOCX(ctx, data)
	default:
		res = extractText(ctx, data)
	}
	res.Kind = kind

	ctxzap.Debug(ctx, "text extracted",
		zap.Int("pages", len(res.Pages)),
		zap.String("outcome", string(res.Outcome)),
	)
	return res
}
