package domain

import (
	"fmt"
	"time"
)

// Policy agrupa todas las constantes de decisión del motor. Ningún detector
// tiene umbrales propios hard-codeados: todo se lee de aquí.
type Policy struct {
	// Normalizer
	MinViableTrades int // por debajo → InsufficientDataError

	// Baseline
	MinSubSample int // mínimo de observaciones para una sub-estadística

	// Overtrading
	OvertradingWindow     time.Duration // tamaño de la ventana (24h = día calendario UTC)
	OvertradingMultiple   float64       // pico > multiple × mediana
	OvertradingMinWindows int           // ventanas necesarias para fijar una mediana

	// Loss aversion
	LossAversionHoldRatio float64 // hold perdedores / hold ganadores
	LossAversionSizeRatio float64 // tamaño perdedores / tamaño ganadores

	// Revenge trading
	RevengeWindow       time.Duration // ventana post-pérdida
	RevengeMaxFollowUps int           // como mucho los K trades siguientes
	RevengeSizeMultiple float64       // follow-up >= multiple × tamaño mediano

	// Monte Carlo fallacy
	MonteCarloMinCorrelation float64
	MonteCarloMinPairs       int
	MonteCarloMinStreak      int

	// Disposition effect
	DispositionMinGap float64 // pW - pL

	// Recency bias
	RecencyShortWindow    int
	RecencyLongWindow     int
	RecencyMinCorrelation float64
	RecencyDominance      float64 // |r_short| - |r_long|
	RecencyMinPairs       int

	// Equity: balance inicial cuando el archivo no trae columna de balance.
	StartingBalance    float64
	HasStartingBalance bool
}

// DefaultPolicy devuelve los valores por defecto documentados.
func DefaultPolicy() Policy {
	return Policy{
		MinViableTrades: 5,
		MinSubSample:    2,

		OvertradingWindow:     24 * time.Hour,
		OvertradingMultiple:   2.0,
		OvertradingMinWindows: 3,

		LossAversionHoldRatio: 1.5,
		LossAversionSizeRatio: 1.5,

		RevengeWindow:       30 * time.Minute,
		RevengeMaxFollowUps: 3,
		RevengeSizeMultiple: 2.0,

		MonteCarloMinCorrelation: 0.3,
		MonteCarloMinPairs:       8,
		MonteCarloMinStreak:      3,

		DispositionMinGap: 0.3,

		RecencyShortWindow:    1,
		RecencyLongWindow:     20,
		RecencyMinCorrelation: 0.3,
		RecencyDominance:      0.1,
		RecencyMinPairs:       8,
	}
}

// WithStartingBalance devuelve una copia con balance inicial explícito.
func (p Policy) WithStartingBalance(v float64) Policy {
	p.StartingBalance = v
	p.HasStartingBalance = true
	return p
}

// Validate rechaza configuraciones que harían a un detector inestable.
func (p Policy) Validate() error {
	switch {
	case p.MinViableTrades < 1:
		return fmt.Errorf("policy: min_viable_trades must be >= 1, got %d", p.MinViableTrades)
	case p.MinSubSample < 1:
		return fmt.Errorf("policy: min_sub_sample must be >= 1, got %d", p.MinSubSample)
	case p.OvertradingWindow <= 0:
		return fmt.Errorf("policy: overtrading_window must be positive")
	case p.OvertradingMultiple <= 1:
		return fmt.Errorf("policy: overtrading_multiple must be > 1, got %.2f", p.OvertradingMultiple)
	case p.OvertradingMinWindows < 2:
		return fmt.Errorf("policy: overtrading_min_windows must be >= 2, got %d", p.OvertradingMinWindows)
	case p.LossAversionHoldRatio <= 1 || p.LossAversionSizeRatio <= 1:
		return fmt.Errorf("policy: loss aversion ratios must be > 1")
	case p.RevengeWindow <= 0 || p.RevengeMaxFollowUps < 1:
		return fmt.Errorf("policy: revenge window and follow-ups must be positive")
	case p.RevengeSizeMultiple <= 1:
		return fmt.Errorf("policy: revenge_size_multiple must be > 1, got %.2f", p.RevengeSizeMultiple)
	case p.MonteCarloMinPairs < 3 || p.RecencyMinPairs < 3:
		return fmt.Errorf("policy: correlation detectors need at least 3 pairs")
	case p.MonteCarloMinCorrelation <= 0 || p.MonteCarloMinCorrelation > 1:
		return fmt.Errorf("policy: monte_carlo_min_correlation must be in (0, 1]")
	case p.RecencyMinCorrelation <= 0 || p.RecencyMinCorrelation > 1:
		return fmt.Errorf("policy: recency_min_correlation must be in (0, 1]")
	case p.RecencyShortWindow < 1 || p.RecencyLongWindow <= p.RecencyShortWindow:
		return fmt.Errorf("policy: recency windows must satisfy 1 <= short < long")
	case p.DispositionMinGap <= 0 || p.DispositionMinGap > 1:
		return fmt.Errorf("policy: disposition_min_gap must be in (0, 1]")
	}
	return nil
}
