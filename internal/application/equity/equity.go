package equity

import (
	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Reconstruct deriva la curva de equity, un punto por trade.
//
// Si el trade trae balance_after se usa tal cual; si no, equity previo + pnl.
// El balance inicial sale, por orden de preferencia:
//  1. del primer trade con balance: balance − Σ pnl hasta ese trade (inclusive)
//  2. de policy.StartingBalance si está configurado
//  3. cero, marcado como assumed_zero en el resultado
func Reconstruct(series domain.TradeSeries, policy domain.Policy) domain.EquityCurve {
	start, source := startingBalance(series, policy)

	points := make([]domain.EquityPoint, 0, series.Len())
	equity := start
	for _, t := range series.All() {
		if t.HasBalanceAfter {
			equity = t.BalanceAfter
		} else {
			equity += t.PnL
		}
		points = append(points, domain.EquityPoint{
			TradeID: t.ID,
			Time:    domain.FormatTime(t.Timestamp),
			Equity:  equity,
			PnL:     t.PnL,
		})
	}

	return domain.EquityCurve{
		Points:          points,
		StartingBalance: start,
		StartSource:     source,
	}
}

func startingBalance(series domain.TradeSeries, policy domain.Policy) (float64, domain.StartingBalanceSource) {
	cumulative := 0.0
	for _, t := range series.All() {
		cumulative += t.PnL
		if t.HasBalanceAfter {
			return t.BalanceAfter - cumulative, domain.StartFromBalanceColumn
		}
	}
	if policy.HasStartingBalance {
		return policy.StartingBalance, domain.StartConfigured
	}
	return 0, domain.StartAssumedZero
}
