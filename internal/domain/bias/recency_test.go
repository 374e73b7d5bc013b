package bias_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/resetpoint/internal/domain"
	"github.com/alejandrodnm/resetpoint/internal/domain/bias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecency_SizeFollowsLastOutcome(t *testing.T) {
	// W L W L ...: después de ganar tamaño 2, después de perder tamaño 1
	var trades []domain.Trade
	for i := range 30 {
		pnl, qty := 1.0, 1.0
		if i%2 == 1 {
			pnl, qty = -1, 2
		}
		trades = append(trades, tr(time.Duration(i)*time.Hour, qty, pnl))
	}
	v := detect(t, bias.NewRecency(domain.DefaultPolicy()), trades)

	require.True(t, v.Detected)
	assert.InDelta(t, 1.0, v.MetricValue, 1e-9)
	assert.NotEmpty(t, v.Examples)
	assert.Contains(t, v.Summary, "after recent wins")
}

func TestRecency_FlatSizing(t *testing.T) {
	var trades []domain.Trade
	for i := range 20 {
		pnl := 1.0
		if i%3 == 0 {
			pnl = -1
		}
		trades = append(trades, tr(time.Duration(i)*time.Hour, 1, pnl))
	}
	v := detect(t, bias.NewRecency(domain.DefaultPolicy()), trades)
	assert.False(t, v.Detected)
	assert.Contains(t, v.Summary, "insufficient variation")
}

func TestRecency_TooFewTrades(t *testing.T) {
	trades := []domain.Trade{tr(0, 1, 1), tr(time.Hour, 2, -1), tr(2*time.Hour, 1, 1)}
	v := detect(t, bias.NewRecency(domain.DefaultPolicy()), trades)
	assert.False(t, v.Detected)
	assert.Contains(t, v.Summary, "Not enough data")
}
