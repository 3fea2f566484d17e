package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/formatter"
	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/futig/docqa-backend/internal/pkg/response"
	"github.com/futig/docqa-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	statusSuccess = "success"
	exportName    = "answer"
)

type Handler struct {
	ingestion  IngestionUsecase
	query      QueryUsecase
	formatters *formatter.Factory
	validator  *validator.Validator
	cfg        config.FileUploadConfig
	messages   config.Messages
}

func NewHandler(
	ingestion IngestionUsecase,
	query QueryUsecase,
	formatters *formatter.Factory,
	validator *validator.Validator,
	cfg config.FileUploadConfig,
	messages config.Messages,
) *Handler {
	return &Handler{
		ingestion:  ingestion,
		query:      query,
		formatters: formatters,
		validator:  validator,
		cfg:        cfg,
		messages:   messages,
	}
}

// Upload handles POST /upload
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Upload")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.respondError(ctx, w, http.StatusBadRequest, "No files uploaded", nil)
		return
	}

	if err := h.validator.ValidateUpload(headers); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	files := make([]entity.FileData, 0, len(headers))
	for _, fh := range headers {
		content, err := readFile(fh)
		if err != nil {
			ctxzap.Error(ctx, "failed to read uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
			continue
		}
		files = append(files, entity.FileData{
			Filename: validator.CleanFilename(fh.Filename),
			Content:  content,
		})
	}

	ctxzap.Info(ctx, "uploading files", zap.Int("file_count", len(files)))

	result, err := h.ingestion.Upload(ctx, r.FormValue("session_id"), files)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.JSON(w, http.StatusOK, &entity.UploadResponse{
		Status:         statusSuccess,
		SessionID:      result.SessionID,
		DocumentsAdded: result.DocumentsAdded,
		Message:        fmt.Sprintf(h.messages.UploadHint, result.SessionID),
	})
}

// Query handles POST /query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Query")

	req, err := decodeQuery(r)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "Session ID cannot be empty", entity.ErrEmptySessionID)
		return
	}

	answer := h.query.Ask(ctx, req.SessionID, req.Question)
	response.JSON(w, http.StatusOK, toQueryResponse(answer))
}

// Export handles POST /query/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Export")

	req, err := decodeQuery(r)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "Session ID cannot be empty", entity.ErrEmptySessionID)
		return
	}

	format := entity.ResultFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatMarkdown
	}
	if !format.IsValid() {
		h.respondError(ctx, w, http.StatusBadRequest, "format must be one of markdown, docx, pdf", entity.ErrInvalidFormat)
		return
	}

	f, err := h.formatters.Create(format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	answer := h.query.Ask(ctx, req.SessionID, req.Question)

	data, err := f.Format(toReport(req, answer))
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to render answer", err)
		return
	}

	ctxzap.Info(ctx, "answer exported", zap.String("format", string(format)), zap.Int("size", len(data)))
	response.Attachment(w, exportName+f.FileExtension(), f.ContentType(), data)
}

// Clear handles GET /clear
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.clear(w, r, r.URL.Query().Get("session_id"))
}

// DeleteSession handles DELETE /sessions/{session_id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.clear(w, r, chi.URLParam(r, "session_id"))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "Clear"),
	)

	if strings.TrimSpace(sessionID) == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "Session ID cannot be empty", entity.ErrEmptySessionID)
		return
	}

	deleted, err := h.ingestion.Clear(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.JSON(w, http.StatusOK, &entity.ClearResponse{
		Status:  statusSuccess,
		Deleted: deleted,
	})
}

// SessionStats handles GET /sessions/{session_id}
func (h *Handler) SessionStats(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "SessionStats"),
	)

	count, err := h.ingestion.SessionStats(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.JSON(w, http.StatusOK, &entity.SessionStatsResponse{
		SessionID: sessionID,
		Documents: count,
	})
}

// decodeQuery accepts a JSON body as well as url-encoded or multipart forms
func decodeQuery(r *http.Request) (*entity.QueryRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		var req entity.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: %w", entity.ErrInvalidFormat, err)
		}
		return &req, nil
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return nil, fmt.Errorf("%w: %w", entity.ErrInvalidFormat, err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidFormat, err)
	}

	return &entity.QueryRequest{
		SessionID: r.FormValue("session_id"),
		Question:  r.FormValue("question"),
	}, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return data, nil
}

// Helper methods
func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	response.JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, entity.ErrNoFiles) {
		h.respondError(ctx, w, http.StatusBadRequest, "No files uploaded", err)
	} else if errors.Is(err, entity.ErrEmptySessionID) {
		h.respondError(ctx, w, http.StatusBadRequest, "Session ID cannot be empty", err)
	} else if errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrInvalidFormat) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	} else if errors.Is(err, entity.ErrFormatUnavailable) {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	} else if errors.Is(err, entity.ErrFileTooLarge) || errors.Is(err, entity.ErrTooManyFiles) || errors.Is(err, entity.ErrTotalSizeTooLarge) {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
