package engine

// concurrent.go — fan-out de equity y detectores sobre la serie ya normalizada.
//
// Cada goroutine escribe en su propio slot pre-indexado, así el resultado no
// depende del orden en que terminen.

import (
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/resetpoint/internal/application/baseline"
	"github.com/alejandrodnm/resetpoint/internal/application/equity"
	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// pipelineOutput junta lo que produce el fan-out.
type pipelineOutput struct {
	base     domain.Baseline
	curve    domain.EquityCurve
	verdicts []domain.BiasVerdict // mismo índice que Engine.detectors
}

func (e *Engine) run(series domain.TradeSeries) pipelineOutput {
	// El baseline va primero: todos los detectores lo leen.
	base := baseline.Estimate(series, e.policy)

	out := pipelineOutput{
		base:     base,
		verdicts: make([]domain.BiasVerdict, len(e.detectors)),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		out.curve = equity.Reconstruct(series, e.policy)
	}()

	for i, d := range e.detectors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			out.verdicts[i] = d.Detect(series, base)
			slog.Debug("detector finished",
				"bias", d.Kind(),
				"detected", out.verdicts[i].Detected,
				"examples", len(out.verdicts[i].Examples),
				"duration", time.Since(start),
			)
		}()
	}
	wg.Wait()
	return out
}
