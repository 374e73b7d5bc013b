package engine

import (
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/resetpoint/internal/application/normalizer"
	"github.com/alejandrodnm/resetpoint/internal/domain"
	"github.com/alejandrodnm/resetpoint/internal/domain/bias"
)

// Engine orquesta un análisis completo: normalize → baseline → fan-out
// (equity + seis detectores) → aggregate. Sin I/O ni reloj: la misma entrada
// produce byte a byte el mismo resultado.
type Engine struct {
	policy     domain.Policy
	normalizer *normalizer.Normalizer
	detectors  []bias.Detector
}

// New valida la policy y crea el Engine con los seis detectores.
func New(policy domain.Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("engine.New: %w", err)
	}
	return &Engine{
		policy:     policy,
		normalizer: normalizer.New(policy),
		detectors:  bias.All(policy),
	}, nil
}

// Policy devuelve la policy efectiva.
func (e *Engine) Policy() domain.Policy { return e.policy }

// Analyze corre el pipeline sobre las filas de un upload.
// Solo falla con *domain.MalformedInputError o *domain.InsufficientDataError;
// una evidencia insuficiente en un detector es un veredicto, no un error.
func (e *Engine) Analyze(filename string, rows []domain.RawRow) (domain.AnalysisResult, error) {
	series, report, err := e.normalizer.Normalize(rows)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	out := e.run(series)
	result := aggregate(filename, series, report, out)

	slog.Debug("engine analysis complete",
		"filename", filename,
		"trades", series.Len(),
		"dropped", report.Dropped,
		"detected", result.Biases.Detected(),
	)
	return result, nil
}
