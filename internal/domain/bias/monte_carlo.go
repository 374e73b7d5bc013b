package bias

import (
	"fmt"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// MonteCarlo: falacia del jugador. El tamaño crece con el largo de la racha
// previa porque "ya toca" que cambie.
type MonteCarlo struct {
	minCorr   float64
	minPairs  int
	minStreak int
}

func NewMonteCarlo(p domain.Policy) MonteCarlo {
	return MonteCarlo{
		minCorr:   p.MonteCarloMinCorrelation,
		minPairs:  p.MonteCarloMinPairs,
		minStreak: p.MonteCarloMinStreak,
	}
}

func (MonteCarlo) Kind() domain.BiasKind { return domain.BiasMonteCarlo }

// streaks devuelve, para cada trade, el largo de la racha del mismo signo que
// termina en él. Un pnl cero corta la racha.
func streaks(s domain.TradeSeries) []int {
	out := make([]int, s.Len())
	for i, t := range s.All() {
		o := t.Outcome()
		switch {
		case o == 0:
			out[i] = 0
		case i > 0 && s.At(i-1).Outcome() == o:
			out[i] = out[i-1] + 1
		default:
			out[i] = 1
		}
	}
	return out
}

func (d MonteCarlo) Detect(s domain.TradeSeries, b domain.Baseline) domain.BiasVerdict {
	n := s.Len()
	if n-1 < d.minPairs {
		return insufficient(domain.BiasMonteCarlo, fmt.Sprintf(
			"need at least %d trades after a first one, found %d", d.minPairs, max(n-1, 0)))
	}

	st := streaks(s)
	xs := make([]float64, 0, n-1)
	ys := make([]float64, 0, n-1)
	longest := 0
	for i := 1; i < n; i++ {
		xs = append(xs, float64(st[i-1]))
		ys = append(ys, s.At(i).Quantity)
		longest = max(longest, st[i-1])
	}

	r, ok := domain.Pearson(xs, ys)
	if !ok {
		return domain.NotDetected("Position size and streak length show insufficient variation to test for the Monte Carlo fallacy.")
	}

	v := domain.BiasVerdict{
		Metric:      fmt.Sprintf("r=%.2f between streak length and next size, longest streak %d", r, longest),
		MetricValue: domain.Round2(r),
		Examples:    []domain.EvidenceItem{},
	}
	if r < d.minCorr {
		v.Summary = fmt.Sprintf("Your position size is independent of winning or losing streaks (r=%.2f).", r)
		return v
	}

	median := b.MedianQuantity.Value
	for i := 1; i < n; i++ {
		t := s.At(i)
		if st[i-1] < d.minStreak || t.Quantity <= median {
			continue
		}
		kind := "winning"
		if s.At(i-1).IsLoss() {
			kind = "losing"
		}
		v.Examples = append(v.Examples, domain.EvidenceFor(t, fmt.Sprintf(
			"size %.2f after a %d-trade %s streak (median size %.2f)", t.Quantity, st[i-1], kind, median)))
	}
	v.Detected = true
	v.Summary = fmt.Sprintf("Your size grows as streaks get longer (r=%.2f). You may be betting that a reversal is due.", r)
	return v
}
