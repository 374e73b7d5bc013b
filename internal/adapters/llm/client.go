package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

const (
	defaultEndpoint = "https://api.openai.com/v1"
	defaultModel    = "gpt-4o-mini"
	defaultMaxTips  = 3

	// El colaborador es caro: 2 req/s alcanza para uploads interactivos.
	ratePerSec  = 2
	temperature = 0.4
	maxTokens   = 400

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// ErrEmptyAdvice: el modelo respondió pero no hay ningún tip utilizable.
var ErrEmptyAdvice = errors.New("llm: empty advice")

// Config configura el cliente OpenAI-compatible.
type Config struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTips   int
	Timeout   time.Duration // timeout HTTP por intento
	RetryWait time.Duration // base del backoff; 0 = 500ms
}

// Client genera consejos con un endpoint /chat/completions.
// Rate limiting, retries con backoff y un circuit breaker que abre tras 3
// fallos consecutivos.
type Client struct {
	http    *http.Client
	cfg     Config
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient crea el Client, completando defaults.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTips <= 0 {
		cfg.MaxTips = defaultMaxTips
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = baseRetryWait
	}

	st := gobreaker.Settings{Name: "llm-advice"}
	st.Interval = 60 * time.Second
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(ratePerSec, 2),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// Advise implementa ports.Advisor.
func (c *Client) Advise(ctx context.Context, result domain.AnalysisResult) ([]string, error) {
	req := chatRequest{
		Model:       c.cfg.Model,
		Messages:    buildMessages(result, c.cfg.MaxTips),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	out, err := c.breaker.Execute(func() (any, error) {
		var resp chatResponse
		if err := c.post(ctx, c.cfg.Endpoint+"/chat/completions", req, &resp); err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("no response choices returned")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return nil, fmt.Errorf("llm.Advise: %w", err)
	}

	tips := ParseTips(out.(string), c.cfg.MaxTips)
	if len(tips) == 0 {
		return nil, fmt.Errorf("llm.Advise: %w", ErrEmptyAdvice)
	}
	return tips, nil
}

// post hace un POST JSON con rate limiting y retries.
func (c *Client) post(ctx context.Context, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial. 429 y 5xx se
// reintentan; el resto de 4xx falla en el acto.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("llm collaborator unavailable, retrying", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.cfg.RetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}
