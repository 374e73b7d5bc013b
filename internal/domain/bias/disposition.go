package bias

import (
	"fmt"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Disposition: cerrar ganadores rápido y dejar correr perdedores.
// "Rápido" es hold < mediana de hold de toda la serie.
type Disposition struct {
	minGap float64
	minSub int
}

func NewDisposition(p domain.Policy) Disposition {
	return Disposition{minGap: p.DispositionMinGap, minSub: p.MinSubSample}
}

func (Disposition) Kind() domain.BiasKind { return domain.BiasDisposition }

func (d Disposition) Detect(s domain.TradeSeries, b domain.Baseline) domain.BiasVerdict {
	if !b.MedianHold.Valid {
		return insufficient(domain.BiasDisposition, "holding durations are unavailable")
	}
	median := b.MedianHold.Value

	var wins, quickWins, losses, quickLosses int
	for i, t := range s.All() {
		h, ok := b.Hold(i)
		if !ok {
			continue
		}
		switch {
		case t.IsWin():
			wins++
			if h < median {
				quickWins++
			}
		case t.IsLoss():
			losses++
			if h < median {
				quickLosses++
			}
		}
	}
	if wins < d.minSub || losses < d.minSub {
		return insufficient(domain.BiasDisposition, fmt.Sprintf(
			"need at least %d winners and %d losers with a holding time, found %d and %d",
			d.minSub, d.minSub, wins, losses))
	}

	pW := float64(quickWins) / float64(wins)
	pL := float64(quickLosses) / float64(losses)
	gap := pW - pL

	v := domain.BiasVerdict{
		Metric:      fmt.Sprintf("%s of winners closed quickly vs %s of losers", pct(pW), pct(pL)),
		MetricValue: domain.Round2(gap),
		Examples:    []domain.EvidenceItem{},
	}
	if gap < d.minGap {
		v.Summary = fmt.Sprintf("You give winners and losers similar room: %s of winners and %s of losers were closed quickly.",
			pct(pW), pct(pL))
		return v
	}

	for i, t := range s.All() {
		h, ok := b.Hold(i)
		if !ok {
			continue
		}
		switch {
		case t.IsWin() && h < median:
			v.Examples = append(v.Examples, domain.EvidenceFor(t, fmt.Sprintf(
				"winner closed after %s (median hold %s)", formatSeconds(h), formatSeconds(median))))
		case t.IsLoss() && h > median:
			v.Examples = append(v.Examples, domain.EvidenceFor(t, fmt.Sprintf(
				"loser held %s (median hold %s)", formatSeconds(h), formatSeconds(median))))
		}
	}
	v.Detected = true
	v.Summary = fmt.Sprintf("You close %s of winners quickly but only %s of losers. You take profits early and let losses ride.",
		pct(pW), pct(pL))
	return v
}
