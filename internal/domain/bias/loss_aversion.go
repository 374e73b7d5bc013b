package bias

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// LossAversion: perdedores mantenidos más tiempo o con más tamaño que los ganadores.
type LossAversion struct {
	holdRatio float64
	sizeRatio float64
	minSub    int
}

func NewLossAversion(p domain.Policy) LossAversion {
	return LossAversion{
		holdRatio: p.LossAversionHoldRatio,
		sizeRatio: p.LossAversionSizeRatio,
		minSub:    p.MinSubSample,
	}
}

func (LossAversion) Kind() domain.BiasKind { return domain.BiasLossAversion }

func (d LossAversion) Detect(s domain.TradeSeries, b domain.Baseline) domain.BiasVerdict {
	if !b.MeanQtyWinners.Valid || !b.MeanQtyLosers.Valid {
		return insufficient(domain.BiasLossAversion, fmt.Sprintf(
			"need at least %d winning and %d losing trades, found %d and %d",
			d.minSub, d.minSub, b.Winners, b.Losers))
	}

	sizeRatio := safeRatio(b.MeanQtyLosers.Value, b.MeanQtyWinners.Value)
	holdRatio, holdOK := 0.0, false
	if b.MeanHoldWinners.Valid && b.MeanHoldLosers.Valid && b.MeanHoldWinners.Value > 0 {
		holdRatio, holdOK = b.MeanHoldLosers.Value/b.MeanHoldWinners.Value, true
	}

	byHold := holdOK && holdRatio > d.holdRatio
	bySize := sizeRatio > d.sizeRatio

	v := domain.BiasVerdict{Examples: []domain.EvidenceItem{}}
	if holdOK {
		v.Metric = fmt.Sprintf("losers held %.2fx, sized %.2fx vs winners", holdRatio, sizeRatio)
		v.MetricValue = domain.Round2(math.Max(holdRatio, sizeRatio))
	} else {
		v.Metric = fmt.Sprintf("losers sized %.2fx vs winners", sizeRatio)
		v.MetricValue = domain.Round2(sizeRatio)
	}

	if !byHold && !bySize {
		if holdOK {
			v.Summary = fmt.Sprintf("Losses are handled like wins: losers are held %.2fx and sized %.2fx relative to winners.",
				holdRatio, sizeRatio)
		} else {
			v.Summary = fmt.Sprintf("Losing positions are sized %.2fx relative to winners, within normal range.", sizeRatio)
		}
		return v
	}

	holdCut := b.MeanHoldWinners.Value * d.holdRatio
	sizeCut := b.MeanQtyWinners.Value * d.sizeRatio
	for i, t := range s.All() {
		if !t.IsLoss() {
			continue
		}
		if h, ok := b.Hold(i); ok && byHold && h > holdCut {
			v.Examples = append(v.Examples, domain.EvidenceFor(t, fmt.Sprintf(
				"losing trade held %s, %.1fx your average winner (%s)",
				formatSeconds(h), h/b.MeanHoldWinners.Value, formatSeconds(b.MeanHoldWinners.Value))))
			continue
		}
		if bySize && t.Quantity > sizeCut {
			v.Examples = append(v.Examples, domain.EvidenceFor(t, fmt.Sprintf(
				"losing trade sized %.2f, %.1fx your average winning size (%.2f)",
				t.Quantity, t.Quantity/b.MeanQtyWinners.Value, b.MeanQtyWinners.Value)))
		}
	}

	v.Detected = true
	switch {
	case byHold && bySize:
		v.Summary = fmt.Sprintf("You hold losing trades %.1fx longer and size them %.1fx larger than winners. You are letting losses run.",
			holdRatio, sizeRatio)
	case byHold:
		v.Summary = fmt.Sprintf("You hold losing trades %.1fx longer than winners, hoping they come back.", holdRatio)
	default:
		v.Summary = fmt.Sprintf("Your losing positions are %.1fx larger than your winners. You add to losers instead of cutting them.",
			sizeRatio)
	}
	return v
}
