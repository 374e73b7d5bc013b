package domain

import "time"

// Status values del contrato de respuesta.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StartingBalanceSource documenta de dónde salió el balance inicial de la curva.
type StartingBalanceSource string

const (
	StartFromBalanceColumn StartingBalanceSource = "balance_column"
	StartConfigured        StartingBalanceSource = "configured"
	StartAssumedZero       StartingBalanceSource = "assumed_zero"
)

// EquityPoint es un punto de la curva reconstruida, uno por trade.
type EquityPoint struct {
	TradeID   string  `json:"trade_id"`
	Time      string  `json:"time"`
	Equity    float64 `json:"equity"`
	PnL       float64 `json:"pnl"`
	BiasEvent string  `json:"bias_event,omitempty"`
}

// EquityCurve es la curva más su punto de partida.
type EquityCurve struct {
	Points          []EquityPoint
	StartingBalance float64
	StartSource     StartingBalanceSource
}

// Final devuelve el último valor de equity (o el inicial si no hay puntos).
func (c EquityCurve) Final() float64 {
	if len(c.Points) == 0 {
		return c.StartingBalance
	}
	return c.Points[len(c.Points)-1].Equity
}

// Metadata resume el upload analizado.
type Metadata struct {
	Filename              string                `json:"filename"`
	TotalTrades           int                   `json:"total_trades"`
	AccountBalance        float64               `json:"account_balance"`
	NetProfit             float64               `json:"net_profit"`
	StartingBalance       float64               `json:"starting_balance"`
	StartingBalanceSource StartingBalanceSource `json:"starting_balance_source"`
	DroppedRows           int                   `json:"dropped_rows"`
	RepairedRows          int                   `json:"repaired_rows"`
	HoldingSource         HoldingSource         `json:"holding_source"`
}

// Biases tiene un slot fijo por sesgo; el orden de campos es el canónico.
type Biases struct {
	Overtrading    BiasVerdict `json:"overtrading"`
	LossAversion   BiasVerdict `json:"loss_aversion"`
	RevengeTrading BiasVerdict `json:"revenge_trading"`
	MonteCarlo     BiasVerdict `json:"monte_carlo"`
	Disposition    BiasVerdict `json:"disposition"`
	Recency        BiasVerdict `json:"recency_bias"`
}

// Get devuelve el veredicto del slot dado.
func (b Biases) Get(k BiasKind) BiasVerdict {
	switch k {
	case BiasOvertrading:
		return b.Overtrading
	case BiasLossAversion:
		return b.LossAversion
	case BiasRevenge:
		return b.RevengeTrading
	case BiasMonteCarlo:
		return b.MonteCarlo
	case BiasDisposition:
		return b.Disposition
	case BiasRecency:
		return b.Recency
	}
	return BiasVerdict{}
}

// Set asigna el veredicto al slot dado.
func (b *Biases) Set(k BiasKind, v BiasVerdict) {
	switch k {
	case BiasOvertrading:
		b.Overtrading = v
	case BiasLossAversion:
		b.LossAversion = v
	case BiasRevenge:
		b.RevengeTrading = v
	case BiasMonteCarlo:
		b.MonteCarlo = v
	case BiasDisposition:
		b.Disposition = v
	case BiasRecency:
		b.Recency = v
	}
}

// Detected devuelve los sesgos detectados en orden canónico.
func (b Biases) Detected() []BiasKind {
	var out []BiasKind
	for _, k := range AllBiases {
		if b.Get(k).Detected {
			out = append(out, k)
		}
	}
	return out
}

// AnalysisResult es el contrato que consumen la capa de presentación y los colaboradores.
type AnalysisResult struct {
	Status      string        `json:"status"`
	Message     string        `json:"message,omitempty"`
	Metadata    Metadata      `json:"metadata"`
	EquityCurve []EquityPoint `json:"equity_curve"`
	Biases      Biases        `json:"biases"`
}

// TimeLayout es el formato de fechas en la salida JSON.
const TimeLayout = time.RFC3339

// FormatTime formatea en UTC con TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ErrorResult arma la respuesta de un análisis abortado: misma forma que un
// éxito, sin curva y con los seis slots en no detectado.
func ErrorResult(filename, message string) AnalysisResult {
	var b Biases
	for _, k := range AllBiases {
		b.Set(k, NotDetected("Analysis did not run."))
	}
	return AnalysisResult{
		Status:      StatusError,
		Message:     message,
		Metadata:    Metadata{Filename: filename},
		EquityCurve: []EquityPoint{},
		Biases:      b,
	}
}
