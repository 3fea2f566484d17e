package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

func (e *Extractor) extractPDF(ctx context.Context, data []byte) entity.Extraction {
	nativePages, err := readNativeText(data)
	if err != nil {
		ctxzap.Error(ctx, "failed to read pdf", zap.Error(err))
		return entity.Extraction{Outcome: entity.OutcomeFailed}
	}

	raster := &lazyRaster{rasterizer: e.rasterizer, data: data}
	defer raster.close()

	outcome := entity.OutcomeOK
	pages := make([]string, len(nativePages))
	for i, native := range nativePages {
		if native.err != nil {
			ctxzap.Warn(ctx, "failed to read pdf page", zap.Int("page", i+1), zap.Error(native.err))
			outcome = entity.OutcomeDegraded
			continue
		}

		if len(strings.TrimSpace(native.text)) >= e.cfg.MinNativeChars || !e.ocr.Available(ctx) {
			pages[i] = native.text
			continue
		}

		ocrText, err := e.ocrPage(ctx, raster, i)
		if errors.Is(err, entity.ErrNotImplemented) {
			pages[i] = native.text
			continue
		}
		if err != nil {
			ctxzap.Warn(ctx, "failed to ocr pdf page", zap.Int("page", i+1), zap.Error(err))
			outcome = entity.OutcomeDegraded
			continue
		}

		if ocrText != "" {
			pages[i] = ocrText
		} else {
			pages[i] = native.text
		}
	}

	return entity.Extraction{Pages: pages, Outcome: outcome}
}

func (e *Extractor) ocrPage(ctx context.Context, raster *lazyRaster, index int) (string, error) {
	doc, err := raster.open()
	if err != nil {
		return "", err
	}

	img, err := doc.RenderPage(index, e.cfg.RenderDPI)
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}

	return e.ocr.Recognize(ctx, img)
}

type nativePage struct {
	text string
	err  error
}

// readNativeText returns the embedded text of every page in document order
func readNativeText(data []byte) (pages []nativePage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := reader.NumPage()
	pages = make([]nativePage, n)
	for i := 1; i <= n; i++ {
		pages[i-1] = readPage(reader, i)
	}
	return pages, nil
}

func readPage(reader *pdf.Reader, num int) (page nativePage) {
	defer func() {
		if r := recover(); r != nil {
			page = nativePage{err: fmt.Errorf("parse page %d: %v", num, r)}
		}
	}()

	p := reader.Page(num)
	if p.V.IsNull() {
		return nativePage{}
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return nativePage{err: err}
	}
	return nativePage{text: text}
}

// lazyRaster opens the document for rendering on first use only
type lazyRaster struct {
	rasterizer Rasterizer
	data       []byte
	doc        RasterDocument
	err        error
	opened     bool
}

func (l *lazyRaster) open() (RasterDocument, error) {
	if !l.opened {
		l.opened = true
		if l.rasterizer == nil {
			l.err = fmt.Errorf("%w: pdf rasterizer", entity.ErrNotImplemented)
		} else {
			l.doc, l.err = l.rasterizer.Open(l.data)
		}
	}
	return l.doc, l.err
}

func (l *lazyRaster) close() {
	if l.doc != nil {
		_ = l.doc.Close()
	}
}
