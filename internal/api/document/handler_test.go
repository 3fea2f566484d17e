package document

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/futig/docqa-backend/internal/chunker"
	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/extractor"
	"github.com/futig/docqa-backend/internal/generator"
	"github.com/futig/docqa-backend/internal/indexer"
	"github.com/futig/docqa-backend/internal/integration/embedding"
	"github.com/futig/docqa-backend/internal/integration/llm"
	"github.com/futig/docqa-backend/internal/ocr"
	"github.com/futig/docqa-backend/internal/pkg/formatter"
	"github.com/futig/docqa-backend/internal/pkg/validator"
	"github.com/futig/docqa-backend/internal/rerank"
	"github.com/futig/docqa-backend/internal/retriever"
	"github.com/futig/docqa-backend/internal/store"
	"github.com/futig/docqa-backend/internal/usecase/ingestion"
	"github.com/futig/docqa-backend/internal/usecase/query"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var uploadCfg = config.FileUploadConfig{
	MaxFileSize:   1 << 20,
	MaxTotalSize:  2 << 20,
	MaxFileCount:  4,
	MaxUploadSize: 1 << 20,
}

func newRouter() http.Handler {
	log := zap.NewNop()
	messages := config.DefaultMessages()

	st := store.NewMemoryStore(0, 0)
	emb := embedding.NewMockConnector(log)
	ext := extractor.New(ocr.Disabled(), nil, extractor.Config{MinNativeChars: 50, RenderDPI: 200})

	ingest := ingestion.NewUsecase(ext, chunker.New(300, 30), indexer.New(emb, st, 8), st, log)
	ask := query.NewUsecase(
		emb,
		retriever.New(st, 3),
		rerank.NewNoop(3),
		generator.New(llm.NewMockConnector(log), messages.NoResponse),
		messages,
		200,
		log,
	)

	h := NewHandler(ingest, ask, formatter.NewFactory(), validator.NewFileValidator(uploadCfg), uploadCfg, messages)

	r := chi.NewRouter()
	RegisterRoutes(r, h)
	return r
}

type upload struct {
	name    string
	content string
}

func uploadRequest(t *testing.T, sessionID string, files ...upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if sessionID != "" {
		require.NoError(t, w.WriteField("session_id", sessionID))
	}
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func queryForm(sessionID, question string) *http.Request {
	form := url.Values{"session_id": {sessionID}, "question": {question}}
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestUploadQueryClearFlow(t *testing.T) {
	r := newRouter()

	rec := serve(r, uploadRequest(t, "s1", upload{"hello.txt", "The sky is blue."}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, entity.UploadResponse{
		Status:         "success",
		SessionID:      "s1",
		DocumentsAdded: 1,
		Message:        "Use this session_id for queries: s1",
	}, decode[entity.UploadResponse](t, rec))

	rec = serve(r, queryForm("s1", "What colour is the sky?"))
	require.Equal(t, http.StatusOK, rec.Code)
	answer := decode[entity.QueryResponse](t, rec)
	assert.Contains(t, strings.ToLower(answer.Answer), "blue")
	assert.Equal(t, []entity.Source{{Filename: "hello.txt", Page: 1, Snippet: "The sky is blue."}}, answer.Sources)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/sessions/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.SessionStatsResponse{SessionID: "s1", Documents: 1}, decode[entity.SessionStatsResponse](t, rec))

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/clear?session_id=s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.ClearResponse{Status: "success", Deleted: 1}, decode[entity.ClearResponse](t, rec))

	rec = serve(r, queryForm("s1", "What colour is the sky?"))
	require.Equal(t, http.StatusOK, rec.Code)
	answer = decode[entity.QueryResponse](t, rec)
	assert.Equal(t, "No documents found for this session. Please upload a file first.", answer.Answer)
	assert.Empty(t, answer.Sources)
	assert.Contains(t, rec.Body.String(), `"sources":[]`)
}

func TestUploadWithoutSessionCreatesOne(t *testing.T) {
	r := newRouter()

	rec := serve(r, uploadRequest(t, "", upload{"a.txt", "alpha"}))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[entity.UploadResponse](t, rec)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Use this session_id for queries: "+resp.SessionID, resp.Message)
}

func TestUploadRejectsBadRequests(t *testing.T) {
	r := newRouter()

	rec := serve(r, uploadRequest(t, "s1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No files uploaded", decode[entity.ErrorResponse](t, rec).Message)

	many := []upload{{"1.txt", "a"}, {"2.txt", "b"}, {"3.txt", "c"}, {"4.txt", "d"}, {"5.txt", "e"}}
	rec = serve(r, uploadRequest(t, "s1", many...))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec = serve(r, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadEmptyFileIsSkipped(t *testing.T) {
	r := newRouter()

	rec := serve(r, uploadRequest(t, "s1", upload{"empty.txt", ""}, upload{"b.txt", "beta"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[entity.UploadResponse](t, rec).DocumentsAdded)
}

func TestQueryValidation(t *testing.T) {
	r := newRouter()

	rec := serve(r, queryForm("  ", "hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Session ID cannot be empty", decode[entity.ErrorResponse](t, rec).Message)

	rec = serve(r, queryForm("s1", "   "))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Please provide a non-empty question.", decode[entity.QueryResponse](t, rec).Answer)
}

func TestQueryAcceptsJSON(t *testing.T) {
	r := newRouter()
	serve(r, uploadRequest(t, "s1", upload{"hello.txt", "The sky is blue."}))

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"session_id":"s1","question":"sky?"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[entity.QueryResponse](t, rec).Sources, 1)

	req = httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"session_id":`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)
}

func TestExport(t *testing.T) {
	r := newRouter()
	serve(r, uploadRequest(t, "s1", upload{"hello.txt", "The sky is blue."}))

	form := url.Values{"session_id": {"s1"}, "question": {"What colour is the sky?"}}
	req := httptest.NewRequest(http.MethodPost, "/query/export?format=markdown", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="answer.md"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "hello.txt, page 1")

	req = httptest.NewRequest(http.MethodPost, "/query/export?format=html", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)
}

func TestExportDOCXWithoutLicense(t *testing.T) {
	r := newRouter()
	serve(r, uploadRequest(t, "s1", upload{"hello.txt", "The sky is blue."}))

	form := url.Values{"session_id": {"s1"}, "question": {"What colour is the sky?"}}
	req := httptest.NewRequest(http.MethodPost, "/query/export?format=docx", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(r, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[entity.ErrorResponse](t, rec).Message, "office license key")
}

func TestDeleteSessionAndBlankClear(t *testing.T) {
	r := newRouter()
	serve(r, uploadRequest(t, "s1", upload{"a.txt", "alpha"}, upload{"b.txt", "beta"}))

	rec := serve(r, httptest.NewRequest(http.MethodDelete, "/sessions/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[entity.ClearResponse](t, rec).Deleted)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/clear?session_id=", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
