package extractor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOCR struct {
	available bool
	text      string
	err       error
	calls     int
}

func (f *fakeOCR) Available(context.Context) bool { return f.available }

func (f *fakeOCR) Recognize(_ context.Context, img image.Image) (string, error) {
	f.calls++
	if img == nil {
		return "", errors.New("nil image")
	}
	return f.text, f.err
}

type fakeRasterizer struct {
	openErr   error
	renderErr error
	rendered  []int
	dpi       float64
}

func (f *fakeRasterizer) Open([]byte) (RasterDocument, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeRasterDoc{r: f}, nil
}

type fakeRasterDoc struct{ r *fakeRasterizer }

func (d *fakeRasterDoc) RenderPage(index int, dpi float64) (image.Image, error) {
	d.r.rendered = append(d.r.rendered, index)
	d.r.dpi = dpi
	if d.r.renderErr != nil {
		return nil, d.r.renderErr
	}
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}

func (d *fakeRasterDoc) Close() error { return nil }

var testCfg = Config{MinNativeChars: 50, RenderDPI: 200}

const longText = "This page carries plenty of embedded text so no OCR is needed at all."

func makePDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Arial", "", 12)
	for _, text := range pages {
		doc.AddPage()
		if text != "" {
			doc.Cell(0, 10, text)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func makePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.NRGBA{A: 128})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestKind(t *testing.T) {
	tests := map[string]entity.SourceKind{
		"report.pdf":   entity.SourceKindPDF,
		"REPORT.PDF":   entity.SourceKindPDF,
		"scan.PNG":     entity.SourceKindImage,
		"photo.jpeg":   entity.SourceKindImage,
		"photo.jpg":    entity.SourceKindImage,
		"fax.TIFF":     entity.SourceKindImage,
		"fax.tif":      entity.SourceKindImage,
		"pic.webp":     entity.SourceKindImage,
		"pic.bmp":      entity.SourceKindImage,
		"notes.docx":   entity.SourceKindDOCX,
		"notes.txt":    entity.SourceKindText,
		"README":       entity.SourceKindText,
		"archive.gif":  entity.SourceKindText,
		"data.csv.pdf": entity.SourceKindPDF,
	}
	for name, want := range tests {
		assert.Equal(t, want, Kind(name), name)
	}
}

func TestExtractText(t *testing.T) {
	e := New(&fakeOCR{}, nil, testCfg)

	t.Run("utf-8 is stripped", func(t *testing.T) {
		res := e.Extract(context.Background(), "hello.txt", []byte("  The sky is blue.\n\n"))
		assert.Equal(t, entity.SourceKindText, res.Kind)
		assert.Equal(t, []string{"The sky is blue."}, res.Pages)
		assert.Equal(t, entity.OutcomeOK, res.Outcome)
	})

	t.Run("invalid utf-8 falls back to latin-1", func(t *testing.T) {
		res := e.Extract(context.Background(), "cafe.txt", []byte{'c', 'a', 'f', 0xE9})
		assert.Equal(t, []string{"café"}, res.Pages)
	})

	t.Run("whitespace only yields an empty page", func(t *testing.T) {
		res := e.Extract(context.Background(), "blank.md", []byte(" \n\t"))
		assert.Equal(t, []string{""}, res.Pages)
	})
}

func TestExtractImage(t *testing.T) {
	t.Run("recognised text is one page", func(t *testing.T) {
		ocr := &fakeOCR{available: true, text: "Hello from a scan"}
		res := New(ocr, nil, testCfg).Extract(context.Background(), "scan.png", makePNG(t))

		assert.Equal(t, entity.SourceKindImage, res.Kind)
		assert.Equal(t, []string{"Hello from a scan"}, res.Pages)
		assert.Equal(t, 1, ocr.calls)
	})

	t.Run("no text yields no pages", func(t *testing.T) {
		res := New(&fakeOCR{available: true}, nil, testCfg).Extract(context.Background(), "scan.png", makePNG(t))
		assert.Empty(t, res.Pages)
		assert.Equal(t, entity.OutcomeOK, res.Outcome)
	})

	t.Run("ocr unavailable", func(t *testing.T) {
		ocr := &fakeOCR{available: false, text: "never"}
		res := New(ocr, nil, testCfg).Extract(context.Background(), "scan.jpg", makePNG(t))
		assert.Empty(t, res.Pages)
		assert.Equal(t, entity.OutcomeFailed, res.Outcome)
		assert.Zero(t, ocr.calls)
	})

	t.Run("undecodable bytes", func(t *testing.T) {
		res := New(&fakeOCR{available: true}, nil, testCfg).Extract(context.Background(), "scan.png", []byte("not an image"))
		assert.Empty(t, res.Pages)
		assert.Equal(t, entity.OutcomeFailed, res.Outcome)
	})

	t.Run("ocr error", func(t *testing.T) {
		ocr := &fakeOCR{available: true, err: errors.New("boom")}
		res := New(ocr, nil, testCfg).Extract(context.Background(), "scan.png", makePNG(t))
		assert.Empty(t, res.Pages)
		assert.Equal(t, entity.OutcomeFailed, res.Outcome)
	})
}

func TestExtractPDF(t *testing.T) {
	data := makePDF(t, longText, "Hi")

	t.Run("native text kept and short page ocr'd", func(t *testing.T) {
		ocr := &fakeOCR{available: true, text: "handwritten note"}
		raster := &fakeRasterizer{}
		res := New(ocr, raster, testCfg).Extract(context.Background(), "mixed.pdf", data)

		require.Len(t, res.Pages, 2)
		assert.Contains(t, res.Pages[0], "plenty of embedded text")
		assert.Equal(t, "handwritten note", res.Pages[1])
		assert.Equal(t, []int{1}, raster.rendered)
		assert.InDelta(t, 200.0, raster.dpi, 1e-9)
		assert.Equal(t, entity.OutcomeOK, res.Outcome)
	})

	t.Run("empty ocr keeps native text", func(t *testing.T) {
		res := New(&fakeOCR{available: true}, &fakeRasterizer{}, testCfg).Extract(context.Background(), "mixed.pdf", data)

		require.Len(t, res.Pages, 2)
		assert.Equal(t, "Hi", strings.TrimSpace(res.Pages[1]))
	})

	t.Run("ocr unavailable keeps native text", func(t *testing.T) {
		raster := &fakeRasterizer{}
		res := New(&fakeOCR{available: false}, raster, testCfg).Extract(context.Background(), "mixed.pdf", data)

		require.Len(t, res.Pages, 2)
		assert.Equal(t, "Hi", strings.TrimSpace(res.Pages[1]))
		assert.Empty(t, raster.rendered)
	})

	t.Run("render failure empties the page", func(t *testing.T) {
		raster := &fakeRasterizer{renderErr: errors.New("render failed")}
		res := New(&fakeOCR{available: true, text: "x"}, raster, testCfg).Extract(context.Background(), "mixed.pdf", data)

		require.Len(t, res.Pages, 2)
		assert.Contains(t, res.Pages[0], "plenty of embedded text")
		assert.Equal(t, "", res.Pages[1])
		assert.Equal(t, entity.OutcomeDegraded, res.Outcome)
	})

	t.Run("missing rasterizer keeps native text", func(t *testing.T) {
		raster := &fakeRasterizer{openErr: entity.ErrNotImplemented}
		res := New(&fakeOCR{available: true, text: "x"}, raster, testCfg).Extract(context.Background(), "mixed.pdf", data)

		require.Len(t, res.Pages, 2)
		assert.Equal(t, "Hi", strings.TrimSpace(res.Pages[1]))
		assert.Equal(t, entity.OutcomeOK, res.Outcome)
	})

	t.Run("corrupt document", func(t *testing.T) {
		res := New(&fakeOCR{available: true}, &fakeRasterizer{}, testCfg).Extract(context.Background(), "broken.pdf", []byte("%PDF-1.4 garbage"))

		assert.Empty(t, res.Pages)
		assert.Equal(t, entity.OutcomeFailed, res.Outcome)
	})
}
