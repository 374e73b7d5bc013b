package domain

// BiasKind identifica cada uno de los seis sesgos. El valor es la key JSON.
type BiasKind string

const (
	BiasOvertrading  BiasKind = "overtrading"
	BiasLossAversion BiasKind = "loss_aversion"
	BiasRevenge      BiasKind = "revenge_trading"
	BiasMonteCarlo   BiasKind = "monte_carlo"
	BiasDisposition  BiasKind = "disposition"
	BiasRecency      BiasKind = "recency_bias"
)

// AllBiases es el orden canónico: define los slots del resultado y la prioridad
// de bias_event en la curva de equity.
var AllBiases = []BiasKind{
	BiasOvertrading,
	BiasLossAversion,
	BiasRevenge,
	BiasMonteCarlo,
	BiasDisposition,
	BiasRecency,
}

// Label devuelve el nombre legible del sesgo.
func (k BiasKind) Label() string {
	switch k {
	case BiasOvertrading:
		return "Overtrading"
	case BiasLossAversion:
		return "Loss Aversion"
	case BiasRevenge:
		return "Revenge Trading"
	case BiasMonteCarlo:
		return "Monte Carlo Fallacy"
	case BiasDisposition:
		return "Disposition Effect"
	case BiasRecency:
		return "Recency Bias"
	default:
		return string(k)
	}
}

// EvidenceItem es un trade concreto citado como prueba de un sesgo.
type EvidenceItem struct {
	TradeID        string   `json:"trade_id,omitempty"`
	TriggerTradeID string   `json:"trigger_trade_id,omitempty"` // revenge: la pérdida que abrió la ventana
	Date           string   `json:"date"`
	Reason         string   `json:"reason"`
	PnL            *float64 `json:"pnl,omitempty"`
	Quantity       *float64 `json:"quantity,omitempty"`
}

// BiasVerdict es la salida de un detector.
// Examples vacío solo si no se detectó o si la detección es puramente agregada.
type BiasVerdict struct {
	Detected    bool           `json:"detected"`
	Summary     string         `json:"summary"`
	Metric      string         `json:"metric,omitempty"`
	MetricValue float64        `json:"metric_value"`
	Examples    []EvidenceItem `json:"examples"`
}

// NotDetected construye un veredicto conservador sin evidencia.
func NotDetected(summary string) BiasVerdict {
	return BiasVerdict{Summary: summary, Examples: []EvidenceItem{}}
}

// EvidenceFor construye un EvidenceItem a partir de un trade.
func EvidenceFor(t Trade, reason string) EvidenceItem {
	pnl := t.PnL
	qty := t.Quantity
	return EvidenceItem{
		TradeID:  t.ID,
		Date:     FormatTime(t.Timestamp),
		Reason:   reason,
		PnL:      &pnl,
		Quantity: &qty,
	}
}
