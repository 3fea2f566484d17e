package ocr

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/common"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// defaultConfidence is used when the model omits a region confidence
const defaultConfidence = 1.0

// Connector talks to an OCR sidecar that accepts an image upload and returns
// paragraph level regions.
type Connector struct {
	config    config.OCRConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.OCRConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

func (c *Connector) Ping(ctx context.Context) error {
	if err := c.connector.DoRequest(ctx, http.MethodGet, c.config.HealthEndpoint, nil, nil); err != nil {
		return fmt.Errorf("ocr health: %w", err)
	}
	return nil
}

// Recognize uploads a PNG image and returns its text regions
func (c *Connector) Recognize(ctx context.Context, pngImage []byte) ([]entity.OCRRegion, error) {
	if len(pngImage) == 0 {
		return nil, fmt.Errorf("empty image data provided")
	}

	endpoint := fmt.Sprintf("%s?paragraph=true", c.config.OCREndpoint)

	prepareBody := func(writer *multipart.Writer) error {
		part, err := writer.CreateFormFile("image", "page.png")
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}

		if _, err := part.Write(pngImage); err != nil {
			return fmt.Errorf("write image content: %w", err)
		}
		return nil
	}

	var resp entity.OCRResponse
	if err := c.connector.DoMultipartRequest(ctx, http.MethodPost, endpoint, prepareBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to recognize image: %w", err)
	}

	regions := make([]entity.OCRRegion, 0, len(resp.Results))
	for _, r := range resp.Results {
		conf := defaultConfidence
		if r.Confidence != nil {
			conf = *r.Confidence
		}
		regions = append(regions, entity.OCRRegion{Text: r.Text, Confidence: conf})
	}

	ctxzap.Debug(ctx, "image recognized", zap.Int("regions", len(regions)))

	return regions, nil
}
