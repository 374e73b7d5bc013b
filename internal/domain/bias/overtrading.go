package bias

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Overtrading compara el conteo de trades por ventana contra la mediana propia.
type Overtrading struct {
	window     time.Duration
	multiple   float64
	minWindows int
}

// NewOvertrading crea el detector con los umbrales de la policy.
func NewOvertrading(p domain.Policy) Overtrading {
	return Overtrading{
		window:     p.OvertradingWindow,
		multiple:   p.OvertradingMultiple,
		minWindows: p.OvertradingMinWindows,
	}
}

func (Overtrading) Kind() domain.BiasKind { return domain.BiasOvertrading }

// Detect agrupa por ventana fija alineada a UTC. Solo cuentan ventanas con
// actividad: un día sin trades no baja la mediana.
func (d Overtrading) Detect(s domain.TradeSeries, _ domain.Baseline) domain.BiasVerdict {
	buckets := make(map[time.Time][]int)
	for i, t := range s.All() {
		key := t.Timestamp.Truncate(d.window)
		buckets[key] = append(buckets[key], i)
	}

	label := windowLabel(d.window)
	if len(buckets) < d.minWindows {
		return insufficient(domain.BiasOvertrading, fmt.Sprintf(
			"need at least %d active %ss to set a baseline, found %d", d.minWindows, label, len(buckets)))
	}

	keys := slices.SortedFunc(maps.Keys(buckets), func(a, b time.Time) int { return a.Compare(b) })
	counts := make([]float64, len(keys))
	peak := 0
	for i, k := range keys {
		counts[i] = float64(len(buckets[k]))
		peak = max(peak, len(buckets[k]))
	}
	median, _ := domain.Median(counts)
	threshold := d.multiple * median

	v := domain.BiasVerdict{
		Metric:      fmt.Sprintf("%d trades/%s vs median %.1f", peak, label, median),
		MetricValue: domain.Round2(float64(peak) / median),
		Examples:    []domain.EvidenceItem{},
	}

	for _, k := range keys {
		idx := buckets[k]
		if float64(len(idx)) <= threshold {
			continue
		}
		for n, i := range idx {
			v.Examples = append(v.Examples, domain.EvidenceFor(s.At(i), fmt.Sprintf(
				"trade %d of %d in the %s starting %s (median %.1f)",
				n+1, len(idx), label, domain.FormatTime(k), median)))
		}
	}

	if len(v.Examples) == 0 {
		v.Summary = fmt.Sprintf("Trade frequency is disciplined: your busiest %s had %d trades against a median of %.1f.",
			label, peak, median)
		return v
	}
	v.Detected = true
	v.Summary = fmt.Sprintf("You placed up to %d trades in a single %s, %.1fx your usual %.1f. You are trading too frequently in short bursts.",
		peak, label, float64(peak)/median, median)
	return v
}
