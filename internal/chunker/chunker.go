// Package chunker splits page texts into overlapping word windows.
package chunker

import (
	"strings"
	"unicode"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/google/uuid"
)

type Chunker struct {
	size   int
	stride int
}

// New returns a chunker producing windows of size words where consecutive
// windows share overlap words. overlap must be smaller than size.
func New(size, overlap int) *Chunker {
	if size < 1 {
		size = 1
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, stride: size - overlap}
}

// Split turns pages into chunks in page order, then window order. Pages
// without words are dropped. A page that fits in one window yields a single
// chunk holding the page text unchanged.
func (c *Chunker) Split(pages []entity.Page) []entity.Chunk {
	var chunks []entity.Chunk
	for _, page := range pages {
		for _, content := range c.windows(page.Text) {
			chunks = append(chunks, entity.Chunk{
				ID:      uuid.NewString(),
				Content: content,
				Meta: entity.ChunkMeta{
					SessionID: page.SessionID,
					Filename:  page.Filename,
					Page:      page.Number,
				},
			})
		}
	}
	return chunks
}

func (c *Chunker) windows(text string) []string {
	spans := wordSpans(text)
	if len(spans) == 0 {
		return nil
	}
	if len(spans) <= c.size {
		return []string{text}
	}

	var out []string
	for start := 0; ; start += c.stride {
		end := min(start+c.size, len(spans))
		out = append(out, text[spans[start][0]:spans[end-1][1]])
		if end == len(spans) {
			break
		}
	}
	return out
}

// wordSpans returns byte offsets [start, end) of whitespace separated words
func wordSpans(text string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}

// WordCount reports the number of whitespace separated words in text
func WordCount(text string) int {
	return len(strings.Fields(text))
}
