package engine

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/resetpoint/internal/application/normalizer"
	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// aggregate arma el AnalysisResult: metadata, curva con bias_event y los seis slots.
func aggregate(filename string, series domain.TradeSeries, report normalizer.Report, out pipelineOutput) domain.AnalysisResult {
	var biases domain.Biases
	for i, k := range domain.AllBiases {
		biases.Set(k, out.verdicts[i])
	}

	points := slices.Clone(out.curve.Points)
	markBiasEvents(points, biases)

	final := decimal.NewFromFloat(out.curve.Final())
	start := decimal.NewFromFloat(out.curve.StartingBalance)

	return domain.AnalysisResult{
		Status: domain.StatusSuccess,
		Metadata: domain.Metadata{
			Filename:              filename,
			TotalTrades:           series.Len(),
			AccountBalance:        final.Round(2).InexactFloat64(),
			NetProfit:             final.Sub(start).Round(2).InexactFloat64(),
			StartingBalance:       start.Round(2).InexactFloat64(),
			StartingBalanceSource: out.curve.StartSource,
			DroppedRows:           report.Dropped,
			RepairedRows:          report.Repaired,
			HoldingSource:         out.base.HoldingSource,
		},
		EquityCurve: points,
		Biases:      biases,
	}
}

// markBiasEvents marca cada punto cuyo trade aparece como evidencia. Si varios
// sesgos citan el mismo trade gana el primero en orden canónico. Las pérdidas
// que disparan un revenge se marcan después y nunca pisan una marca previa.
func markBiasEvents(points []domain.EquityPoint, biases domain.Biases) {
	event := make(map[string]domain.BiasKind)
	mark := func(id string, k domain.BiasKind) {
		if _, seen := event[id]; id != "" && !seen {
			event[id] = k
		}
	}
	for _, k := range domain.AllBiases {
		v := biases.Get(k)
		if !v.Detected {
			continue
		}
		for _, ex := range v.Examples {
			mark(ex.TradeID, k)
		}
	}
	for _, k := range domain.AllBiases {
		v := biases.Get(k)
		if !v.Detected {
			continue
		}
		for _, ex := range v.Examples {
			mark(ex.TriggerTradeID, k)
		}
	}
	for i := range points {
		if k, ok := event[points[i].TradeID]; ok {
			points[i].BiasEvent = string(k)
		}
	}
}
