package bot

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	pkghttp "github.com/futig/docqa-backend/pkg/http"
)

// FileFetcher resolves a Telegram file id to its download URL and fetches it
type FileFetcher struct {
	api  API
	conn *pkghttp.Connector
}

func NewFileFetcher(api API, conn *pkghttp.Connector) *FileFetcher {
	return &FileFetcher{api: api, conn: conn}
}

// Fetch never returns the file URL in its errors, it carries the bot token
func (f *FileFetcher) Fetch(ctx context.Context, fileID string, maxBytes int64) ([]byte, error) {
	fileURL, err := f.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", withoutURL(err))
	}

	data, err := f.conn.Download(ctx, "", maxBytes, pkghttp.WithURL(fileURL))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", withoutURL(err))
	}

	return data, nil
}

func withoutURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
