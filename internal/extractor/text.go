package extractor

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

type textDecoder struct {
	name   string
	decode func([]byte) (string, bool)
}

// decoders are tried in order, the first one that accepts the bytes wins.
// Latin-1 is the ISO-8859-1 byte mapping and accepts any input, so the last
// entry is only reached if that one is removed.
var decoders = []textDecoder{
	{name: "utf-8", decode: decodeUTF8},
	{name: "latin-1", decode: decodeWith(charmap.ISO8859_1)},
	{name: "iso-8859-1", decode: decodeWith(charmap.ISO8859_1)},
}

func decodeUTF8(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

func decodeWith(enc encoding.Encoding) func([]byte) (string, bool) {
	return func(data []byte) (string, bool) {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}

func extractText(ctx context.Context, data []byte) entity.Extraction {
	for _, d := range decoders {
		text, ok := d.decode(data)
		if !ok {
			continue
		}
		if d.name != "utf-8" {
			ctxzap.Debug(ctx, "decoded text with fallback encoding", zap.String("encoding", d.name))
		}
		return entity.Extraction{Pages: []string{strings.TrimSpace(text)}, Outcome: entity.OutcomeOK}
	}

	ctxzap.Error(ctx, "failed to decode text file")
	return entity.Extraction{Outcome: entity.OutcomeFailed}
}
