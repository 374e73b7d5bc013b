package engine_test

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/alejandrodnm/resetpoint/internal/application/engine"
	"github.com/alejandrodnm/resetpoint/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)

type row struct {
	at       time.Duration
	qty, pnl float64
}

func toRaw(rs []row) []domain.RawRow {
	out := make([]domain.RawRow, len(rs))
	for i, r := range rs {
		out[i] = domain.RawRow{
			"Date":     t0.Add(r.at).Format(time.RFC3339),
			"Side":     "buy",
			"Quantity": strconv.FormatFloat(r.qty, 'f', -1, 64),
			"PnL":      strconv.FormatFloat(r.pnl, 'f', -1, 64),
		}
	}
	return out
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(domain.DefaultPolicy())
	require.NoError(t, err)
	return e
}

func analyze(t *testing.T, rs []row) domain.AnalysisResult {
	t.Helper()
	res, err := newEngine(t).Analyze("trades.csv", toRaw(rs))
	require.NoError(t, err)
	assertEvidenceAttributable(t, res)
	return res
}

func assertEvidenceAttributable(t *testing.T, res domain.AnalysisResult) {
	t.Helper()
	ids := make(map[string]bool, len(res.EquityCurve))
	for _, p := range res.EquityCurve {
		ids[p.TradeID] = true
	}
	for _, k := range domain.AllBiases {
		for _, ex := range res.Biases.Get(k).Examples {
			assert.True(t, ids[ex.TradeID], "%s cites unknown trade %q", k, ex.TradeID)
		}
	}
}

// scenarioA: 3 trades/día durante 10 días y un día con 9, tamaño constante.
func scenarioA() []row {
	var rs []row
	for d := range 10 {
		for k := range 3 {
			pnl := 5.0
			if k == 1 {
				pnl = -3
			}
			rs = append(rs, row{at: time.Duration(d)*24*time.Hour + time.Duration(k)*2*time.Hour, qty: 1, pnl: pnl})
		}
	}
	for k := range 9 {
		rs = append(rs, row{at: 10*24*time.Hour + time.Duration(k)*40*time.Minute, qty: 1, pnl: 2})
	}
	return rs
}

// scenarioB: una pérdida de tamaño 1 seguida a los 10 minutos por un trade de tamaño 5.
func scenarioB() []row {
	var rs []row
	for i := range 8 {
		pnl := 4.0
		if i%2 == 1 {
			pnl = -2
		}
		rs = append(rs, row{at: time.Duration(i) * 3 * time.Hour, qty: 1, pnl: pnl})
	}
	last := 24 * time.Hour
	return append(rs,
		row{at: last, qty: 1, pnl: -10},
		row{at: last + 10*time.Minute, qty: 5, pnl: 3},
	)
}

// scenarioC: todo ganador, tamaño y duración uniformes.
func scenarioC() []row {
	var rs []row
	for i := range 12 {
		rs = append(rs, row{at: time.Duration(i) * time.Hour, qty: 1, pnl: 10})
	}
	return rs
}

func TestScenarioA_Overtrading(t *testing.T) {
	res := analyze(t, scenarioA())

	v := res.Biases.Overtrading
	require.True(t, v.Detected)
	require.Len(t, v.Examples, 9)
	for _, ex := range v.Examples {
		assert.Contains(t, ex.Date, "2025-04-17")
	}
	for _, p := range res.EquityCurve[30:] {
		assert.Equal(t, string(domain.BiasOvertrading), p.BiasEvent)
	}
	assert.Empty(t, res.EquityCurve[0].BiasEvent)
}

func TestScenarioB_RevengePair(t *testing.T) {
	res := analyze(t, scenarioB())

	v := res.Biases.RevengeTrading
	require.True(t, v.Detected)
	require.Len(t, v.Examples, 1)
	assert.Equal(t, "row-10", v.Examples[0].TradeID)
	assert.Equal(t, "row-9", v.Examples[0].TriggerTradeID)

	marked := map[string]string{}
	for _, p := range res.EquityCurve {
		if p.BiasEvent != "" {
			marked[p.TradeID] = p.BiasEvent
		}
	}
	assert.Equal(t, string(domain.BiasRevenge), marked["row-10"])
	assert.Equal(t, string(domain.BiasRevenge), marked["row-9"], "the triggering loss is marked too")
}

func TestScenarioC_NothingDetected(t *testing.T) {
	res := analyze(t, scenarioC())

	assert.Empty(t, res.Biases.Detected())
	for _, k := range domain.AllBiases {
		v := res.Biases.Get(k)
		assert.NotEmpty(t, v.Summary, k)
		assert.NotNil(t, v.Examples, k)
	}
	for _, p := range res.EquityCurve {
		assert.Empty(t, p.BiasEvent)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	e := newEngine(t)
	for _, rs := range [][]row{scenarioA(), scenarioB(), scenarioC()} {
		first, err := e.Analyze("a.csv", toRaw(rs))
		require.NoError(t, err)
		second, err := e.Analyze("a.csv", toRaw(rs))
		require.NoError(t, err)

		b1, err := json.Marshal(first)
		require.NoError(t, err)
		b2, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(b1), string(b2))
	}
}

func TestAnalyze_EquityFollowsPnL(t *testing.T) {
	rs := scenarioB()
	res := analyze(t, rs)

	require.Len(t, res.EquityCurve, len(rs))
	assert.InDelta(t, rs[0].pnl, res.EquityCurve[0].Equity, 1e-9)
	for i := 1; i < len(rs); i++ {
		assert.Equal(t, res.EquityCurve[i-1].Equity+rs[i].pnl, res.EquityCurve[i].Equity)
	}
	assert.Equal(t, domain.StartAssumedZero, res.Metadata.StartingBalanceSource)
}

func TestAnalyze_Metadata(t *testing.T) {
	rs := []row{
		{at: 0, qty: 1, pnl: 10.25},
		{at: time.Hour, qty: 1, pnl: -3.5},
		{at: 2 * time.Hour, qty: 1, pnl: 0.125},
		{at: 3 * time.Hour, qty: 1, pnl: 1},
		{at: 4 * time.Hour, qty: 1, pnl: 2},
	}
	res := analyze(t, rs)

	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, "trades.csv", res.Metadata.Filename)
	assert.Equal(t, 5, res.Metadata.TotalTrades)
	assert.InDelta(t, 9.88, res.Metadata.AccountBalance, 1e-9)
	assert.InDelta(t, 9.88, res.Metadata.NetProfit, 1e-9)
	assert.Equal(t, domain.HoldingProxy, res.Metadata.HoldingSource)
}

func TestAnalyze_ScaleInvariance(t *testing.T) {
	// perdedores 4x más grandes que ganadores y un día de overtrading
	base := scenarioA()
	for i := range base {
		if base[i].pnl < 0 {
			base[i].qty = 4
		}
	}
	scaled := make([]row, len(base))
	for i, r := range base {
		r.qty *= 7.5
		scaled[i] = r
	}

	a := analyze(t, base)
	b := analyze(t, scaled)

	require.True(t, a.Biases.LossAversion.Detected)
	require.True(t, a.Biases.Overtrading.Detected)
	assert.Equal(t, a.Biases.LossAversion.Detected, b.Biases.LossAversion.Detected)
	assert.Equal(t, a.Biases.Overtrading.Detected, b.Biases.Overtrading.Detected)
	assert.InDelta(t, a.Biases.LossAversion.MetricValue, b.Biases.LossAversion.MetricValue, 1e-9)
}

func TestAnalyze_MinimumDataGuard(t *testing.T) {
	_, err := newEngine(t).Analyze("short.csv", toRaw(scenarioC()[:3]))

	var insufficient *domain.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Valid)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestAnalyze_MalformedInput(t *testing.T) {
	_, err := newEngine(t).Analyze("empty.csv", nil)
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestNew_RejectsInvalidPolicy(t *testing.T) {
	p := domain.DefaultPolicy()
	p.OvertradingMultiple = 0
	_, err := engine.New(p)
	assert.Error(t, err)
}

func TestAnalyze_OutOfRangeValuesAreDropped(t *testing.T) {
	cases := []struct {
		col     string
		dropped int
	}{
		{"PnL", 1},
		{"Quantity", 1},
		{"Balance", 0},
	}
	for _, tc := range cases {
		t.Run(tc.col, func(t *testing.T) {
			rows := toRaw(scenarioB())
			rows[3][tc.col] = "1e400"

			res, err := newEngine(t).Analyze("huge.csv", rows)
			require.NoError(t, err)
			assert.Equal(t, tc.dropped, res.Metadata.DroppedRows)
			assert.Equal(t, len(rows)-tc.dropped, res.Metadata.TotalTrades)

			_, err = json.Marshal(res)
			require.NoError(t, err)
		})
	}
}
