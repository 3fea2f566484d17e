package formatter

import (
	"fmt"

	"github.com/futig/docqa-backend/internal/entity"
)

const (
	baseTitle     = "Answer"
	sourcesTitle  = "Sources"
	questionLabel = "Question"
)

// Report is an answered question ready to be rendered as a document
type Report struct {
	SessionID string
	Question  string
	Answer    string
	Sources   []entity.Source
}

type Formatter interface {
	Format(report Report) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct {
	docx bool
}

type FactoryOption func(*Factory)

// WithDOCX enables Word export. unioffice needs a license key to write
// documents, so it stays off unless one was installed.
func WithDOCX(enabled bool) FactoryOption {
	return func(f *Factory) { f.docx = enabled }
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		if !f.docx {
			return nil, fmt.Errorf("%w: docx export needs an office license key", entity.ErrFormatUnavailable)
		}
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", entity.ErrInvalidFormat, format)
	}
}

func sourceLine(s entity.Source) string {
	return fmt.Sprintf("%s, page %d", s.Filename, s.Page)
}
