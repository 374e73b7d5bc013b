package domain

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

// Side es la dirección de una ejecución. long se normaliza a buy y short a sell.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// RawRow es una fila sin procesar del archivo subido: columna → valor.
type RawRow map[string]string

// Trade es una ejecución normalizada. Inmutable una vez construida por el normalizer.
type Trade struct {
	ID        string
	Row       int // fila de datos 1-based en el archivo original
	Timestamp time.Time
	Side      Side
	Quantity  float64 // siempre > 0
	PnL       float64 // P&L realizado atribuido a este trade
	Symbol    string

	BalanceAfter    float64
	HasBalanceAfter bool

	OpenedAt    time.Time // zero si el archivo solo trae fills
	HasOpenedAt bool
}

// IsWin devuelve true si el trade cerró con ganancia.
func (t Trade) IsWin() bool { return t.PnL > 0 }

// IsLoss devuelve true si el trade cerró con pérdida.
func (t Trade) IsLoss() bool { return t.PnL < 0 }

// Outcome devuelve +1, -1 o 0 según el signo del P&L.
func (t Trade) Outcome() int {
	switch {
	case t.PnL > 0:
		return 1
	case t.PnL < 0:
		return -1
	default:
		return 0
	}
}

// TradeSeries es la secuencia ordenada de trades de un upload.
// Nadie fuera de NewTradeSeries tiene acceso al slice interno, así que los
// detectores pueden compartirla por referencia sin locks.
type TradeSeries struct {
	trades []Trade
	index  map[string]int
}

// NewTradeSeries ordena (estable, por timestamp) y valida unicidad de IDs.
func NewTradeSeries(trades []Trade) (TradeSeries, error) {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b Trade) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	index := make(map[string]int, len(sorted))
	for i, t := range sorted {
		if _, dup := index[t.ID]; dup {
			return TradeSeries{}, fmt.Errorf("domain.NewTradeSeries: duplicate trade id %q", t.ID)
		}
		index[t.ID] = i
	}
	return TradeSeries{trades: sorted, index: index}, nil
}

// Len devuelve el número de trades.
func (s TradeSeries) Len() int { return len(s.trades) }

// At devuelve una copia del trade i.
func (s TradeSeries) At(i int) Trade { return s.trades[i] }

// All itera los trades en orden temporal.
func (s TradeSeries) All() iter.Seq2[int, Trade] {
	return func(yield func(int, Trade) bool) {
		for i, t := range s.trades {
			if !yield(i, t) {
				return
			}
		}
	}
}

// Trades devuelve una copia de la secuencia completa.
func (s TradeSeries) Trades() []Trade { return slices.Clone(s.trades) }

// Contains reporta si el ID pertenece a la serie.
func (s TradeSeries) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Index devuelve la posición del trade con el ID dado, o -1.
func (s TradeSeries) Index(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// Quantities devuelve los tamaños en orden.
func (s TradeSeries) Quantities() []float64 {
	out := make([]float64, len(s.trades))
	for i, t := range s.trades {
		out[i] = t.Quantity
	}
	return out
}

// Last devuelve el último trade y false si la serie está vacía.
func (s TradeSeries) Last() (Trade, bool) {
	if len(s.trades) == 0 {
		return Trade{}, false
	}
	return s.trades[len(s.trades)-1], true
}
