package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/alejandrodnm/resetpoint/internal/adapters/speech"
	"github.com/alejandrodnm/resetpoint/internal/domain"
)

const (
	msgInvalidCSV       = "Please upload a valid CSV file."
	msgVoiceUnavailable = "voice unavailable"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.MaxUploadBytes {
		writeDetail(w, http.StatusRequestEntityTooLarge, "File too large.")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "File too large.")
			return
		}
		writeDetail(w, http.StatusBadRequest, msgInvalidCSV)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, msgInvalidCSV)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		writeDetail(w, http.StatusBadRequest, msgInvalidCSV)
		return
	}

	start := time.Now()
	resp := s.analysis.Analyze(r.Context(), header.Filename, file)
	s.metrics.observeAnalysis(resp, time.Since(start))

	status := http.StatusOK
	if resp.Status == domain.StatusError {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

type speakRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if s.speaker == nil {
		writeDetail(w, http.StatusServiceUnavailable, msgVoiceUnavailable)
		return
	}

	var req speakRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Body must be JSON with a text field.")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeDetail(w, http.StatusBadRequest, "Text is required.")
		return
	}

	audio, err := s.speaker.Speak(r.Context(), req.Text)
	switch {
	case errors.Is(err, speech.ErrNotConfigured):
		writeDetail(w, http.StatusServiceUnavailable, msgVoiceUnavailable)
		return
	case errors.Is(err, speech.ErrEmptyText):
		writeDetail(w, http.StatusBadRequest, "Text is required.")
		return
	case err != nil:
		slog.Warn("speech collaborator failed", "request_id", RequestID(r.Context()), "err", err)
		s.metrics.speechFailures.Inc()
		writeDetail(w, http.StatusBadGateway, "voice service error")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"uptime_s": int64(time.Since(s.started).Seconds()),
	})
}

// writeJSON codifica antes de escribir el status: un fallo de encoding es un 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response failed", "err", err)
		status = http.StatusInternalServerError
		body = []byte(`{"detail":"Internal Server Error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Warn("write response failed", "err", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
