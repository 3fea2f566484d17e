//go:build !cgo || nocgo

package extractor

import (
	"fmt"

	"github.com/futig/docqa-backend/internal/entity"
)

// FitzRasterizer is unavailable in builds without cgo. go-fitz then loads
// libmupdf at package init and panics when the library is missing, so it is
// not linked. PDF pages keep their native text.
type FitzRasterizer struct{}

func NewRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

func (FitzRasterizer) Open([]byte) (RasterDocument, error) {
	return nil, fmt.Errorf("%w: pdf rendering requires a cgo build", entity.ErrNotImplemented)
}
