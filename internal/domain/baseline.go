package domain

import "math"

// HoldingSource indica de dónde sale la duración de holding.
type HoldingSource string

const (
	HoldingRoundTrip HoldingSource = "round_trip"        // timestamp - opened_at
	HoldingProxy     HoldingSource = "inter_trade_proxy" // timestamp - timestamp previo
	HoldingMixed     HoldingSource = "mixed"
	HoldingNone      HoldingSource = "none"
)

// Stat es una sub-estadística que puede no estar definida.
type Stat struct {
	Value float64
	N     int
	Valid bool
}

// Baseline son las estadísticas de referencia del propio trader, calculadas una
// vez por request. Es la única vara de medir de los detectores.
type Baseline struct {
	MedianInterval Stat // segundos entre trades consecutivos
	MeanAbsPnL     Stat
	MeanQuantity   Stat
	MedianQuantity Stat

	MeanHoldWinners Stat // segundos
	MeanHoldLosers  Stat
	MedianHold      Stat

	MeanQtyWinners Stat
	MeanQtyLosers  Stat

	WinRate Stat
	Winners int
	Losers  int

	HoldingSource HoldingSource

	// Holds está alineado con la serie; NaN donde la duración es desconocida.
	Holds []float64
}

// Hold devuelve la duración de holding del trade i en segundos.
func (b Baseline) Hold(i int) (float64, bool) {
	if i < 0 || i >= len(b.Holds) {
		return 0, false
	}
	h := b.Holds[i]
	if math.IsNaN(h) {
		return 0, false
	}
	return h, true
}
