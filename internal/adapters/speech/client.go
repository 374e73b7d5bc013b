package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBase     = "https://api.elevenlabs.io"
	defaultModel    = "eleven_multilingual_v2"
	defaultMaxChars = 1200
	maxAudioBytes   = 10 << 20
)

var (
	// ErrNotConfigured: falta API key o voice id. El HTTP lo mapea a 503.
	ErrNotConfigured = errors.New("speech: not configured")
	// ErrEmptyText: nada que leer. El HTTP lo mapea a 400.
	ErrEmptyText = errors.New("speech: empty text")
)

// Config configura el colaborador de texto a voz.
type Config struct {
	BaseURL  string
	APIKey   string
	VoiceID  string
	Model    string
	MaxChars int
	Timeout  time.Duration
}

// Client llama a un endpoint ElevenLabs-compatible y devuelve audio/mpeg.
type Client struct {
	http    *http.Client
	cfg     Config
	limiter *rate.Limiter
}

// NewClient crea el Client, completando defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBase
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultMaxChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(2, 2),
	}
}

// Configured indica si hay credenciales para sintetizar.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.VoiceID != ""
}

// Speak implementa ports.Speaker.
func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	text = Truncate(strings.TrimSpace(text), c.cfg.MaxChars)
	if text == "" {
		return nil, ErrEmptyText
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("speech.Speak: rate limiter: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": c.cfg.Model,
		"voice_settings": map[string]float64{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("speech.Speak: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.cfg.BaseURL, c.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("speech.Speak: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech.Speak: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("speech.Speak: API error %d: %s", resp.StatusCode, string(msg))
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("speech.Speak: read audio: %w", err)
	}
	return audio, nil
}

// Truncate corta el texto a maxChars runas, sin partir caracteres multibyte.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
