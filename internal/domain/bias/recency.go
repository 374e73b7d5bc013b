package bias

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Recency: el tamaño sigue a los últimos resultados más que al historial.
type Recency struct {
	short, long int
	minCorr     float64
	dominance   float64
	minPairs    int
}

func NewRecency(p domain.Policy) Recency {
	return Recency{
		short:     p.RecencyShortWindow,
		long:      p.RecencyLongWindow,
		minCorr:   p.RecencyMinCorrelation,
		dominance: p.RecencyDominance,
		minPairs:  p.RecencyMinPairs,
	}
}

func (Recency) Kind() domain.BiasKind { return domain.BiasRecency }

// signal devuelve el outcome medio de los trades [from, to).
func signal(s domain.TradeSeries, from, to int) float64 {
	sum := 0.0
	for i := max(from, 0); i < to; i++ {
		sum += float64(s.At(i).Outcome())
	}
	return sum / float64(to-max(from, 0))
}

func (d Recency) Detect(s domain.TradeSeries, _ domain.Baseline) domain.BiasVerdict {
	n := s.Len()
	var shortSig, longSig, sizes []float64
	var idx []int
	for i := d.short; i < n; i++ {
		shortSig = append(shortSig, signal(s, i-d.short, i))
		longSig = append(longSig, signal(s, i-d.long, i))
		sizes = append(sizes, s.At(i).Quantity)
		idx = append(idx, i)
	}
	if len(sizes) < d.minPairs {
		return insufficient(domain.BiasRecency, fmt.Sprintf(
			"need at least %d trades with prior history, found %d", d.minPairs, len(sizes)))
	}

	rs, ok := domain.Pearson(shortSig, sizes)
	if !ok {
		return domain.NotDetected("Recent outcomes and position size show insufficient variation to test for recency bias.")
	}
	rl, ok := domain.Pearson(longSig, sizes)
	if !ok {
		rl = 0
	}

	v := domain.BiasVerdict{
		Metric:      fmt.Sprintf("r=%.2f with last %d trades vs r=%.2f with last %d", rs, d.short, rl, d.long),
		MetricValue: domain.Round2(rs),
		Examples:    []domain.EvidenceItem{},
	}
	if math.Abs(rs) < d.minCorr || math.Abs(rs)-math.Abs(rl) < d.dominance {
		v.Summary = fmt.Sprintf("Your sizing does not chase the latest results (r=%.2f short term vs %.2f long term).", rs, rl)
		return v
	}

	// evidencia: cambios de tamaño >= 50% respecto del trade anterior en la
	// dirección que predice la correlación
	for _, i := range idx {
		prev, cur := s.At(i-1), s.At(i)
		if prev.Outcome() == 0 {
			continue
		}
		up := cur.Quantity >= prev.Quantity*1.5
		down := cur.Quantity*1.5 <= prev.Quantity
		follows := float64(prev.Outcome())*rs > 0
		var reason string
		switch {
		case up && follows:
			reason = fmt.Sprintf("size raised from %.2f to %.2f right after a %s", prev.Quantity, cur.Quantity, outcomeWord(prev))
		case down && !follows:
			reason = fmt.Sprintf("size cut from %.2f to %.2f right after a %s", prev.Quantity, cur.Quantity, outcomeWord(prev))
		default:
			continue
		}
		v.Examples = append(v.Examples, domain.EvidenceFor(cur, reason))
	}

	v.Detected = true
	if rs > 0 {
		v.Summary = fmt.Sprintf("You size up after recent wins and down after recent losses (r=%.2f vs %.2f long term). The last few trades drive your decisions.",
			rs, rl)
	} else {
		v.Summary = fmt.Sprintf("You size up after recent losses and down after recent wins (r=%.2f vs %.2f long term). The last few trades drive your decisions.",
			rs, rl)
	}
	return v
}

func outcomeWord(t domain.Trade) string {
	if t.IsWin() {
		return "win"
	}
	return "loss"
}
