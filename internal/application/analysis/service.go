package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/alejandrodnm/resetpoint/internal/adapters/csvfile"
	"github.com/alejandrodnm/resetpoint/internal/application/engine"
	"github.com/alejandrodnm/resetpoint/internal/domain"
	"github.com/alejandrodnm/resetpoint/internal/ports"
)

// Origen de los tips de una respuesta (no se serializa, solo métricas y logs).
const (
	AdviceFromCache   = "cache"
	AdviceFromAdvisor = "advisor"
	AdviceDisabled    = "disabled"
	AdviceFailed      = "failed"
)

// Config contiene la configuración del servicio.
type Config struct {
	AdvisorName   string // entra en la clave de cache: cambiar de proveedor invalida
	AdviceTimeout time.Duration
	CacheTTL      time.Duration
	CSV           csvfile.Options
}

// Response es el contrato JSON de un análisis: el AnalysisResult más los tips.
type Response struct {
	domain.AnalysisResult
	AIAdvice []string `json:"ai_advice"`

	AdviceSource string `json:"-"`
	Err          error  `json:"-"` // *domain.MalformedInputError o *domain.InsufficientDataError
}

// Service orquesta un upload: parse → engine → consejos.
type Service struct {
	cfg     Config
	engine  *engine.Engine
	advisor ports.Advisor     // nil = sin consejos
	cache   ports.AdviceCache // nil = sin cache
}

// NewService crea el Service con las dependencias inyectadas.
func NewService(cfg Config, eng *engine.Engine, advisor ports.Advisor, cache ports.AdviceCache) *Service {
	if cfg.AdviceTimeout <= 0 {
		cfg.AdviceTimeout = 15 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 7 * 24 * time.Hour
	}
	return &Service{cfg: cfg, engine: eng, advisor: advisor, cache: cache}
}

// Analyze nunca devuelve error: un fallo del engine es una Response con
// status "error"; un fallo del colaborador de consejos es ai_advice vacío.
func (s *Service) Analyze(ctx context.Context, filename string, r io.Reader) Response {
	start := time.Now()

	result, err := s.run(filename, r)
	if err != nil {
		slog.Info("analysis rejected", "filename", filename, "err", err)
		return Response{
			AnalysisResult: domain.ErrorResult(filename, err.Error()),
			AIAdvice:       []string{},
			AdviceSource:   AdviceDisabled,
			Err:            err,
		}
	}

	tips, source := s.advise(ctx, result)
	slog.Info("analysis complete",
		"filename", filename,
		"trades", result.Metadata.TotalTrades,
		"dropped", result.Metadata.DroppedRows,
		"detected", result.Biases.Detected(),
		"advice", source,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return Response{AnalysisResult: result, AIAdvice: tips, AdviceSource: source}
}

// AnalyzeResult corre solo el pipeline determinista, sin consejos.
func (s *Service) AnalyzeResult(filename string, r io.Reader) (domain.AnalysisResult, error) {
	return s.run(filename, r)
}

func (s *Service) run(filename string, r io.Reader) (domain.AnalysisResult, error) {
	rows, err := csvfile.Read(r, s.cfg.CSV)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	return s.engine.Analyze(filename, rows)
}

// advise consulta la cache y, en un miss, al advisor con timeout propio.
func (s *Service) advise(ctx context.Context, result domain.AnalysisResult) ([]string, string) {
	if s.advisor == nil {
		return []string{}, AdviceDisabled
	}

	key := CacheKey(s.cfg.AdvisorName, result)
	if s.cache != nil {
		tips, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			slog.Warn("advice cache read failed", "err", err)
		case ok:
			return nonNil(tips), AdviceFromCache
		}
	}

	adviceCtx, cancel := context.WithTimeout(ctx, s.cfg.AdviceTimeout)
	defer cancel()
	tips, err := s.advisor.Advise(adviceCtx, result)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "advice collaborator failed", "advisor", s.cfg.AdvisorName, "err", err)
		return []string{}, AdviceFailed
	}
	tips = nonNil(tips)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, tips, s.cfg.CacheTTL); err != nil {
			slog.Warn("advice cache write failed", "err", err)
		}
	}
	return tips, AdviceFromAdvisor
}

// CacheKey es el SHA-256 de lo que el advisor ve: proveedor, sesgos y totales.
// No incluye filename ni la curva, así que dos uploads equivalentes comparten tips.
func CacheKey(advisor string, result domain.AnalysisResult) string {
	payload, _ := json.Marshal(struct {
		Advisor        string        `json:"advisor"`
		Biases         domain.Biases `json:"biases"`
		TotalTrades    int           `json:"total_trades"`
		NetProfit      float64       `json:"net_profit"`
		AccountBalance float64       `json:"account_balance"`
	}{
		Advisor:        advisor,
		Biases:         result.Biases,
		TotalTrades:    result.Metadata.TotalTrades,
		NetProfit:      result.Metadata.NetProfit,
		AccountBalance: result.Metadata.AccountBalance,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func nonNil(tips []string) []string {
	if tips == nil {
		return []string{}
	}
	return tips
}
