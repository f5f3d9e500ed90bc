package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/ctrlchart-cli/internal/ingest"
	"github.com/KaramelBytes/ctrlchart-cli/internal/pipeline"
	"github.com/KaramelBytes/ctrlchart-cli/internal/preset"
	"github.com/KaramelBytes/ctrlchart-cli/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	runner := pipeline.NewRunner(logger)
	runner.Render = render.Options{Width: 500, Height: 300}
	return &Handler{
		Runner:  runner,
		Presets: preset.NewCatalog(nil),
		Ingest:  ingest.DefaultOptions(),
		Logger:  logger,
	}
}

func upload(t *testing.T, filename, content, analysis string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("analysis", analysis))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/charts/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, path string, v any) *http.Request {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var e APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListPresets(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/presets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got []preset.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestUploadCSVReturnsPDF(t *testing.T) {
	csv := "Data,Valor\n01/01/2024,\"10,5\"\n02/01/2024,12\n03/01/2024,11\n"
	rec := httptest.NewRecorder()
	newHandler(t).Routes().ServeHTTP(rec, upload(t, "dados.csv", csv, "colimetria"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestUploadMissingColumn(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).Routes().ServeHTTP(rec, upload(t, "dados.csv", "Data,Value\n01/01/2024,1\n", "eba"))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, CodeMissingColumn, e.ErrorCode)
	assert.Contains(t, e.Message, `"Valor"`)
}

func TestUploadUnsupportedFile(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).Routes().ServeHTTP(rec, upload(t, "dados.pdf", "x", "eba"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidRequest, decodeError(t, rec).ErrorCode)
}

func TestUploadTooLarge(t *testing.T) {
	h := newHandler(t)
	h.MaxUploadBytes = 64
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, upload(t, "dados.csv", "Data,Valor\n"+strings.Repeat("01/01/2024,1\n", 50), "eba"))
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
}

func TestPasteChart(t *testing.T) {
	rec := httptest.NewRecorder()
	req := jsonRequest(t, "/api/charts/paste", PasteRequest{
		Analysis: "Turbidez",
		Data:     "Header\n01/01/2024\t10,5\n02/01/2024\t11,0\n03/01/2024\t9,9",
	})
	newHandler(t).Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Turbidez.pdf")
}

func TestPasteProcessingError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := jsonRequest(t, "/api/charts/paste", PasteRequest{Analysis: "eba", Data: "Header\n01/01/2024\t10,5\n"})
	newHandler(t).Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, CodeProcessingError, e.ErrorCode)
	assert.Contains(t, e.Message, "error processing data")
}

func TestPasteInvalidBody(t *testing.T) {
	h := newHandler(t).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(t, "/api/charts/paste", PasteRequest{Analysis: "eba"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/charts/paste", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(t, "/api/charts/paste", PasteRequest{Data: "h\n01/01/2024\t1"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasteLimits(t *testing.T) {
	rec := httptest.NewRecorder()
	req := jsonRequest(t, "/api/limits/paste", PasteRequest{
		Analysis: "eba",
		Data:     "h\n01/01/2024\t10\n02/01/2024\t12\n03/01/2024\t11\n04/01/2024\t13",
	})
	newHandler(t).Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got LimitsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.InDelta(t, 11.5, got.Limits.Mean, 1e-9)
	assert.InDelta(t, 15.373, got.Limits.Upper, 1e-3)
	assert.Equal(t, "Esporos de Bactérias Aeróbias - EBA", got.Summary.Analysis)
	assert.Equal(t, 4, got.Summary.Rows)
}

func TestPasteLimitsOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	req := jsonRequest(t, "/api/limits/paste", PasteRequest{
		Analysis: "eba",
		Data:     "h\n01/01/2024\t1e308\n02/01/2024\t1.7e308",
	})
	newHandler(t).Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	e := decodeError(t, rec)
	assert.Equal(t, CodeProcessingError, e.ErrorCode)
	assert.Contains(t, e.Message, "not finite")
	assert.Equal(t, map[string]any{"stage": "limits"}, e.Details)
}

func TestServerGracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{Handler: newHandler(t).Routes(), Logger: zaptest.NewLogger(t)}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
