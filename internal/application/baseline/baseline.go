package baseline

import (
	"math"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Estimate calcula las estadísticas de referencia del trader.
//
// Duración de holding: timestamp − opened_at cuando el archivo trae la apertura
// (round trip); si solo hay fills se usa el intervalo con el trade anterior como
// proxy. El primer trade de un archivo de fills no tiene duración.
//
// Nunca falla: una sub-estadística con menos de MinSubSample observaciones queda
// Valid=false y los detectores la tratan como evidencia insuficiente.
func Estimate(series domain.TradeSeries, policy domain.Policy) domain.Baseline {
	minN := policy.MinSubSample
	n := series.Len()

	b := domain.Baseline{Holds: make([]float64, n)}

	var (
		intervals            []float64
		absPnL, qtys         []float64
		holds                []float64
		holdWins, holdLosses []float64
		qtyWins, qtyLosses   []float64
		roundTrips, proxies  int
	)

	for i, t := range series.All() {
		absPnL = append(absPnL, math.Abs(t.PnL))
		qtys = append(qtys, t.Quantity)

		if i > 0 {
			intervals = append(intervals, t.Timestamp.Sub(series.At(i-1).Timestamp).Seconds())
		}

		hold := math.NaN()
		switch {
		case t.HasOpenedAt:
			hold = t.Timestamp.Sub(t.OpenedAt).Seconds()
			roundTrips++
		case i > 0:
			hold = t.Timestamp.Sub(series.At(i-1).Timestamp).Seconds()
			proxies++
		}
		b.Holds[i] = hold

		switch {
		case t.IsWin():
			b.Winners++
			qtyWins = append(qtyWins, t.Quantity)
			if !math.IsNaN(hold) {
				holdWins = append(holdWins, hold)
			}
		case t.IsLoss():
			b.Losers++
			qtyLosses = append(qtyLosses, t.Quantity)
			if !math.IsNaN(hold) {
				holdLosses = append(holdLosses, hold)
			}
		}
		if !math.IsNaN(hold) {
			holds = append(holds, hold)
		}
	}

	b.MedianInterval = medianStat(intervals, 1)
	b.MeanAbsPnL = meanStat(absPnL, 1)
	b.MeanQuantity = meanStat(qtys, 1)
	b.MedianQuantity = medianStat(qtys, 1)
	b.MedianHold = medianStat(holds, minN)
	b.MeanHoldWinners = meanStat(holdWins, minN)
	b.MeanHoldLosers = meanStat(holdLosses, minN)
	b.MeanQtyWinners = meanStat(qtyWins, minN)
	b.MeanQtyLosers = meanStat(qtyLosses, minN)
	if n > 0 {
		b.WinRate = domain.StatOf(float64(b.Winners)/float64(n), n, 1)
	}

	switch {
	case roundTrips > 0 && proxies > 0:
		b.HoldingSource = domain.HoldingMixed
	case roundTrips > 0:
		b.HoldingSource = domain.HoldingRoundTrip
	case proxies > 0:
		b.HoldingSource = domain.HoldingProxy
	default:
		b.HoldingSource = domain.HoldingNone
	}
	return b
}

func meanStat(xs []float64, minN int) domain.Stat {
	v, _ := domain.Mean(xs)
	return domain.StatOf(v, len(xs), minN)
}

func medianStat(xs []float64, minN int) domain.Stat {
	v, _ := domain.Median(xs)
	return domain.StatOf(v, len(xs), minN)
}
