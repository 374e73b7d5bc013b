package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/resetpoint/internal/adapters/httpapi"
	"github.com/alejandrodnm/resetpoint/internal/adapters/speech"
	"github.com/alejandrodnm/resetpoint/internal/application/analysis"
	"github.com/alejandrodnm/resetpoint/internal/application/engine"
	"github.com/alejandrodnm/resetpoint/internal/domain"
)

type fakeSpeaker struct {
	audio []byte
	err   error
	got   string
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) ([]byte, error) {
	f.got = text
	return f.audio, f.err
}

func newServer(t *testing.T, speaker *fakeSpeaker) *httpapi.Server {
	t.Helper()
	eng, err := engine.New(domain.DefaultPolicy())
	require.NoError(t, err)
	svc := analysis.NewService(analysis.Config{}, eng, nil, nil)

	cfg := httpapi.DefaultConfig()
	cfg.MaxUploadBytes = 1 << 20
	if speaker == nil {
		return httpapi.NewServer(cfg, svc, nil, nil)
	}
	return httpapi.NewServer(cfg, svc, speaker, nil)
}

func upload(t *testing.T, name string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "..", "..", "testdata", "fixtures", name))
	require.NoError(t, err)
	return b
}

func serve(s *httpapi.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAnalyze_Success(t *testing.T) {
	s := newServer(t, nil)
	rec := serve(s, upload(t, "trades.csv", fixture(t, "scenario_a_overtrading.csv")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, []any{}, body["ai_advice"])
	assert.Contains(t, body, "equity_curve")

	biases, ok := body["biases"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, biases, 6)
	for _, k := range domain.AllBiases {
		assert.Contains(t, biases, string(k))
	}
	over := biases["overtrading"].(map[string]any)
	assert.Equal(t, true, over["detected"])
}

func TestAnalyze_RejectsNonCSV(t *testing.T) {
	s := newServer(t, nil)
	rec := serve(s, upload(t, "trades.xlsx", []byte("whatever")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Please upload a valid CSV file."}`, rec.Body.String())
}

func TestAnalyze_MissingFileField(t *testing.T) {
	s := newServer(t, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_InsufficientDataIs422(t *testing.T) {
	s := newServer(t, nil)
	rec := serve(s, upload(t, "short.CSV", fixture(t, "too_short.csv")))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Status   string         `json:"status"`
		Message  string         `json:"message"`
		AIAdvice []string       `json:"ai_advice"`
		Biases   map[string]any `json:"biases"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.NotEmpty(t, body.Message)
	assert.NotNil(t, body.AIAdvice)
	assert.Len(t, body.Biases, 6)
}

func TestAnalyze_TooLarge(t *testing.T) {
	s := newServer(t, nil)
	big := strings.Repeat("2025-01-01T00:00:00Z,buy,1,1\n", 60_000)
	rec := serve(s, upload(t, "big.csv", []byte("timestamp,side,quantity,pnl\n"+big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSpeak_Success(t *testing.T) {
	sp := &fakeSpeaker{audio: []byte("ID3audio")}
	s := newServer(t, sp)

	req := httptest.NewRequest(http.MethodPost, "/speak", strings.NewReader(`{"text":"Take a break."}`))
	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID3audio", rec.Body.String())
	assert.Equal(t, "Take a break.", sp.got)
}

func TestSpeak_Errors(t *testing.T) {
	cases := []struct {
		name    string
		speaker *fakeSpeaker
		body    string
		want    int
	}{
		{"no speaker", nil, `{"text":"hi"}`, http.StatusServiceUnavailable},
		{"not configured", &fakeSpeaker{err: speech.ErrNotConfigured}, `{"text":"hi"}`, http.StatusServiceUnavailable},
		{"collaborator down", &fakeSpeaker{err: errors.New("boom")}, `{"text":"hi"}`, http.StatusBadGateway},
		{"empty text", &fakeSpeaker{}, `{"text":"  "}`, http.StatusBadRequest},
		{"bad json", &fakeSpeaker{}, `not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newServer(t, tc.speaker)
			req := httptest.NewRequest(http.MethodPost, "/speak", strings.NewReader(tc.body))
			rec := serve(s, req)
			assert.Equal(t, tc.want, rec.Code)
			assert.Contains(t, rec.Body.String(), "detail")
		})
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Contains(t, body, "uptime_s")
}

func TestRequestID(t *testing.T) {
	s := newServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = serve(s, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	s := newServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := serve(s, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	s := newServer(t, nil)
	serve(s, upload(t, "trades.csv", fixture(t, "scenario_b_revenge.csv")))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, `resetpoint_analyses_total{status="success"} 1`)
	assert.Contains(t, text, `resetpoint_biases_detected_total{bias="revenge_trading"} 1`)
	assert.Contains(t, text, `resetpoint_advice_total{source="disabled"} 1`)
	assert.Contains(t, text, `resetpoint_http_requests_total{code="200",method="POST",route="/analyze"} 1`)
}

func TestNotFound(t *testing.T) {
	s := newServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyze_OutOfRangePnLRowIsDropped(t *testing.T) {
	s := newServer(t, nil)
	csv := "timestamp,side,quantity,pnl\n" +
		"2025-04-07 09:00:00,buy,1,10\n" +
		"2025-04-07 10:00:00,buy,1,-4\n" +
		"2025-04-07 11:00:00,buy,1,1e400\n" +
		"2025-04-07 12:00:00,sell,1,6\n" +
		"2025-04-07 13:00:00,buy,1,-2\n" +
		"2025-04-07 14:00:00,sell,1,3\n"
	rec := serve(s, upload(t, "trades.csv", []byte(csv)))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status   string `json:"status"`
		Metadata struct {
			TotalTrades int `json:"total_trades"`
			DroppedRows int `json:"dropped_rows"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 5, body.Metadata.TotalTrades)
	assert.Equal(t, 1, body.Metadata.DroppedRows)
}
