package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedian_OddAndEven(t *testing.T) {
	m, ok := Median([]float64{5, 1, 3})
	require.True(t, ok)
	assert.Equal(t, 3.0, m)

	m, ok = Median([]float64{4, 1, 3, 2})
	require.True(t, ok)
	assert.Equal(t, 2.5, m)
}

func TestMedian_DoesNotMutate(t *testing.T) {
	xs := []float64{3, 1, 2}
	_, _ = Median(xs)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}

func TestMedian_Empty(t *testing.T) {
	_, ok := Median(nil)
	assert.False(t, ok)
}

func TestMean_Basic(t *testing.T) {
	m, ok := Mean([]float64{1, 2, 3, 4})
	require.True(t, ok)
	assert.InDelta(t, 2.5, m, 1e-9)
}

func TestPearson_PerfectPositive(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)
}

func TestPearson_PerfectNegative(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2})
	require.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-9)
}

func TestPearson_ZeroVariance(t *testing.T) {
	_, ok := Pearson([]float64{1, 1, 1, 1}, []float64{1, 2, 3, 4})
	assert.False(t, ok, "constant x has no defined correlation")
}

func TestPearson_TooFewPairs(t *testing.T) {
	_, ok := Pearson([]float64{1, 2}, []float64{1, 2})
	assert.False(t, ok)
}

func TestStatOf_BelowMinimum(t *testing.T) {
	s := StatOf(10, 1, 2)
	assert.False(t, s.Valid)
	assert.Equal(t, 1, s.N)
}

// --- TradeSeries ---

func TestNewTradeSeries_StableSort(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	trades := []Trade{
		{ID: "c", Timestamp: base.Add(time.Minute)},
		{ID: "a", Timestamp: base},
		{ID: "b", Timestamp: base}, // empate: conserva el orden de entrada
	}
	s, err := NewTradeSeries(trades)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, "a", s.At(0).ID)
	assert.Equal(t, "b", s.At(1).ID)
	assert.Equal(t, "c", s.At(2).ID)
	assert.Equal(t, 2, s.Index("c"))
	assert.Equal(t, -1, s.Index("zzz"))
}

func TestNewTradeSeries_DuplicateID(t *testing.T) {
	_, err := NewTradeSeries([]Trade{{ID: "x"}, {ID: "x"}})
	assert.Error(t, err)
}

func TestTradeSeries_TradesIsACopy(t *testing.T) {
	s, err := NewTradeSeries([]Trade{{ID: "x", Quantity: 1}})
	require.NoError(t, err)
	cp := s.Trades()
	cp[0].Quantity = 99
	assert.Equal(t, 1.0, s.At(0).Quantity)
}

func TestPolicy_DefaultIsValid(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
}

func TestPolicy_RejectsBadMultiple(t *testing.T) {
	p := DefaultPolicy()
	p.OvertradingMultiple = 0.5
	assert.Error(t, p.Validate())
}

func TestErrors_IsSentinels(t *testing.T) {
	assert.ErrorIs(t, NewMalformedInput("no rows"), ErrMalformedInput)
	assert.ErrorIs(t, &InsufficientDataError{Valid: 2, Required: 5}, ErrInsufficientData)
	assert.NotErrorIs(t, NewMalformedInput("x"), ErrInsufficientData)
}
