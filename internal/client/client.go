// Package client talks to a running document Q&A server over HTTP
package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/futig/docqa-backend/internal/entity"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
	"go.uber.org/zap"
)

type Client struct {
	connector *pkghttp.Connector
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		connector: pkghttp.NewConnector(
			&pkghttp.ConnectorConfig{BaseURL: baseURL, Logger: logger},
			pkghttp.WithRequestTimeout(timeout),
			pkghttp.WithRequestLogging(),
			pkghttp.WithUserAgent("ragctl"),
		),
	}
}

func (c *Client) Health(ctx context.Context) (entity.HealthResponse, error) {
	var resp entity.HealthResponse
	if err := c.connector.DoRequest(ctx, http.MethodGet, "/healthz", nil, &resp); err != nil {
		return resp, fmt.Errorf("health check: %w", err)
	}
	return resp, nil
}

// Upload sends the files at paths in one multipart request. An empty
// sessionID lets the server start a new session.
func (c *Client) Upload(ctx context.Context, sessionID string, paths []string) (entity.UploadResponse, error) {
	var resp entity.UploadResponse

	prepare := func(w *multipart.Writer) error {
		if sessionID != "" {
			if err := w.WriteField("session_id", sessionID); err != nil {
				return err
			}
		}
		for _, path := range paths {
			if err := attachFile(w, path); err != nil {
				return err
			}
		}
		return nil
	}

	if err := c.connector.DoMultipartRequest(ctx, http.MethodPost, "/upload", prepare, &resp); err != nil {
		return resp, fmt.Errorf("upload: %w", err)
	}
	return resp, nil
}

func (c *Client) Ask(ctx context.Context, sessionID, question string) (entity.QueryResponse, error) {
	var resp entity.QueryResponse
	req := entity.QueryRequest{SessionID: sessionID, Question: question}
	if err := c.connector.DoRequest(ctx, http.MethodPost, "/query", req, &resp); err != nil {
		return resp, fmt.Errorf("query: %w", err)
	}
	return resp, nil
}

func (c *Client) Clear(ctx context.Context, sessionID string) (entity.ClearResponse, error) {
	var resp entity.ClearResponse
	if err := c.connector.DoRequest(ctx, http.MethodDelete, sessionPath(sessionID), nil, &resp); err != nil {
		return resp, fmt.Errorf("clear session: %w", err)
	}
	return resp, nil
}

func (c *Client) Stats(ctx context.Context, sessionID string) (entity.SessionStatsResponse, error) {
	var resp entity.SessionStatsResponse
	if err := c.connector.DoRequest(ctx, http.MethodGet, sessionPath(sessionID), nil, &resp); err != nil {
		return resp, fmt.Errorf("session stats: %w", err)
	}
	return resp, nil
}

func sessionPath(sessionID string) string {
	return "/sessions/" + url.PathEscape(sessionID)
}

func attachFile(w *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	return nil
}
