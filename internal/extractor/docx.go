package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/unidoc/unioffice/document"
	"go.uber.org/zap"
)

const (
	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	wordBodyPart  = "word/document.xml"
)

// extractDOCX returns the paragraph text of a Word document as one page.
// unioffice refuses to open documents without a license key, the document
// body is then read directly from the package.
func extractDOCX(ctx context.Context, data []byte) entity.Extraction {
	text, err := readDOCX(data)
	if err != nil {
		ctxzap.Debug(ctx, "unioffice could not read docx, reading document body", zap.Error(err))
		text, err = readDOCXBody(data)
	}
	if err != nil {
		ctxzap.Error(ctx, "failed to read docx", zap.Error(err))
		return entity.Extraction{Outcome: entity.OutcomeFailed}
	}
	return entity.Extraction{Pages: []string{text}, Outcome: entity.OutcomeOK}
}

func readDOCX(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse docx: %v", r)
		}
	}()

	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	var lines []string
	for _, p := range doc.Paragraphs() {
		var sb strings.Builder
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		lines = append(lines, sb.String())
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// readDOCXBody collects the text runs of word/document.xml, one line per
// paragraph
func readDOCXBody(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx package: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == wordBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("docx package has no %s", wordBodyPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", wordBodyPart, err)
	}
	defer rc.Close()

	var (
		lines  []string
		line   strings.Builder
		inRun  bool
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", wordBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "r":
				inRun = true
			case "t":
				inText = inRun
			case "tab":
				if inRun {
					line.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					line.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "r":
				inRun = false
			case "t":
				inText = false
			case "p":
				lines = append(lines, line.String())
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
