package formatter

import (
	"bytes"

	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(report Report) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	heading(doc, "Heading1", baseTitle)

	q := doc.AddParagraph()
	label := q.AddRun()
	label.Properties().SetBold(true)
	label.AddText(questionLabel + ": ")
	q.AddRun().AddText(report.Question)

	doc.AddParagraph()
	doc.AddParagraph().AddRun().AddText(report.Answer)

	if len(report.Sources) > 0 {
		heading(doc, "Heading2", sourcesTitle)
		for _, s := range report.Sources {
			p := doc.AddParagraph()
			run := p.AddRun()
			run.Properties().SetBold(true)
			run.AddText(sourceLine(s))
			if s.Snippet != "" {
				snippet := p.AddRun()
				snippet.AddBreak()
				snippet.Properties().SetItalic(true)
				snippet.AddText(s.Snippet)
			}
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func heading(doc *document.Document, style, text string) {
	p := doc.AddParagraph()
	p.SetStyle(style)
	p.AddRun().AddText(text)
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
