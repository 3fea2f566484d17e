package formatter

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(report Report) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", baseTitle)
	fmt.Fprintf(&buf, "**%s:** %s\n\n", questionLabel, report.Question)
	fmt.Fprintf(&buf, "%s\n", report.Answer)

	if len(report.Sources) > 0 {
		fmt.Fprintf(&buf, "\n## %s\n\n", sourcesTitle)
		for i, s := range report.Sources {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, sourceLine(s))
			if s.Snippet != "" {
				fmt.Fprintf(&buf, "   > %s\n", strings.ReplaceAll(s.Snippet, "\n", " "))
			}
		}
	}
	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
