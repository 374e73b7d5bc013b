package bias

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// RevengeTrading: trade sobredimensionado poco después de una pérdida.
type RevengeTrading struct {
	window       time.Duration
	maxFollowUps int
	multiple     float64
}

func NewRevengeTrading(p domain.Policy) RevengeTrading {
	return RevengeTrading{
		window:       p.RevengeWindow,
		maxFollowUps: p.RevengeMaxFollowUps,
		multiple:     p.RevengeSizeMultiple,
	}
}

func (RevengeTrading) Kind() domain.BiasKind { return domain.BiasRevenge }

// Detect recorre la serie una vez. Cada pérdida abre una ventana de duración
// fija y de a lo sumo maxFollowUps trades; una pérdida nueva la reinicia.
// Un follow-up pertenece solo a la pérdida más reciente, así que cada par
// (pérdida, follow-up) se cuenta una vez.
func (d RevengeTrading) Detect(s domain.TradeSeries, b domain.Baseline) domain.BiasVerdict {
	if !b.MedianQuantity.Valid || b.MedianQuantity.Value <= 0 {
		return insufficient(domain.BiasRevenge, "no position sizes to compare")
	}
	if b.Losers == 0 {
		return domain.NotDetected("No losing trades in the file, so there is nothing to take revenge on.")
	}

	median := b.MedianQuantity.Value
	threshold := d.multiple * median

	v := domain.BiasVerdict{Examples: []domain.EvidenceItem{}}
	var (
		armed     bool
		trigger   domain.Trade
		followUps int
		largest   float64
	)
	for _, t := range s.All() {
		if armed {
			elapsed := t.Timestamp.Sub(trigger.Timestamp)
			if elapsed <= d.window && followUps < d.maxFollowUps {
				followUps++
				if t.Quantity >= threshold {
					ratio := t.Quantity / median
					largest = max(largest, ratio)
					item := domain.EvidenceFor(t, fmt.Sprintf(
						"size %.2f (%.1fx your median) placed %s after a %.2f loss",
						t.Quantity, ratio, formatSeconds(elapsed.Seconds()), trigger.PnL))
					item.TriggerTradeID = trigger.ID
					v.Examples = append(v.Examples, item)
				}
			} else {
				armed = false
			}
		}
		if t.IsLoss() {
			armed, trigger, followUps = true, t, 0
		}
	}

	pairs := len(v.Examples)
	v.Metric = fmt.Sprintf("%d oversized trades within %s of a loss", pairs, shortDuration(d.window))
	v.MetricValue = domain.Round2(largest)
	if pairs == 0 {
		v.Summary = fmt.Sprintf("After losses you keep your usual size: no trade within %s of a loss reached %.1fx your median size.",
			shortDuration(d.window), d.multiple)
		return v
	}
	v.Detected = true
	v.Summary = fmt.Sprintf("%d times you sized up to %.1fx your median within %s of a loss. You are trying to win it back.",
		pairs, largest, shortDuration(d.window))
	return v
}
