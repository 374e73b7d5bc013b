package bias_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/resetpoint/internal/domain"
	"github.com/alejandrodnm/resetpoint/internal/domain/bias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steady devuelve n trades de tamaño 1 separados por 2h, alternando resultado.
func steady(n int) []domain.Trade {
	var out []domain.Trade
	for i := range n {
		pnl := 1.0
		if i%2 == 1 {
			pnl = -1
		}
		out = append(out, tr(time.Duration(i)*2*time.Hour, 1, pnl))
	}
	return out
}

func TestRevenge_OversizedAfterLoss(t *testing.T) {
	trades := steady(6)
	last := 12 * time.Hour
	trades = append(trades,
		tr(last, 1, -50),
		tr(last+10*time.Minute, 5, 8),
	)
	v := detect(t, bias.NewRevengeTrading(domain.DefaultPolicy()), trades)

	require.True(t, v.Detected)
	require.Len(t, v.Examples, 1)
	assert.Equal(t, "t07", v.Examples[0].TradeID)
	assert.Equal(t, "t06", v.Examples[0].TriggerTradeID)
	assert.InDelta(t, 5.0, v.MetricValue, 1e-9)
	assert.Contains(t, v.Examples[0].Reason, "10m")
}

func TestRevenge_NewLossRearms(t *testing.T) {
	trades := steady(6)
	last := 12 * time.Hour
	trades = append(trades,
		tr(last, 1, -5),
		tr(last+5*time.Minute, 1, -5),
		tr(last+10*time.Minute, 4, 1),
	)
	v := detect(t, bias.NewRevengeTrading(domain.DefaultPolicy()), trades)

	require.Len(t, v.Examples, 1)
	assert.Equal(t, "t07", v.Examples[0].TriggerTradeID, "the most recent loss is the trigger")
}

func TestRevenge_OutsideWindow(t *testing.T) {
	trades := steady(6)
	last := 12 * time.Hour
	trades = append(trades,
		tr(last, 1, -5),
		tr(last+45*time.Minute, 5, 1),
	)
	v := detect(t, bias.NewRevengeTrading(domain.DefaultPolicy()), trades)
	assert.False(t, v.Detected)
}

func TestRevenge_PastMaxFollowUps(t *testing.T) {
	trades := steady(6)
	last := 12 * time.Hour
	trades = append(trades,
		tr(last, 1, -5),
		tr(last+1*time.Minute, 1, 1),
		tr(last+2*time.Minute, 1, 1),
		tr(last+3*time.Minute, 1, 1),
		tr(last+4*time.Minute, 5, 1), // cuarto follow-up: fuera de K=3
	)
	v := detect(t, bias.NewRevengeTrading(domain.DefaultPolicy()), trades)
	assert.False(t, v.Detected)
}

func TestRevenge_NoLosses(t *testing.T) {
	trades := []domain.Trade{tr(0, 1, 1), tr(time.Minute, 5, 1), tr(2*time.Minute, 1, 1)}
	v := detect(t, bias.NewRevengeTrading(domain.DefaultPolicy()), trades)
	assert.False(t, v.Detected)
}
