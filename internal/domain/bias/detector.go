package bias

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Detector define el contrato de los seis detectores de sesgos.
// Las implementaciones son funciones puras sobre la serie y el baseline: sin
// estado mutable compartido, seguras para evaluar en cualquier orden o en paralelo.
type Detector interface {
	Kind() domain.BiasKind
	Detect(series domain.TradeSeries, base domain.Baseline) domain.BiasVerdict
}

// All devuelve los seis detectores en orden canónico.
func All(policy domain.Policy) []Detector {
	return []Detector{
		NewOvertrading(policy),
		NewLossAversion(policy),
		NewRevengeTrading(policy),
		NewMonteCarlo(policy),
		NewDisposition(policy),
		NewRecency(policy),
	}
}

// --- helpers de formato compartidos por los templates de summary ---

func formatSeconds(sec float64) string {
	return shortDuration(time.Duration(sec * float64(time.Second)))
}

// shortDuration: 30m en vez de 30m0s, 2h5m en vez de 2h5m0s.
func shortDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d >= time.Hour {
		d = d.Round(time.Minute)
	}
	out := d.String()
	if strings.HasSuffix(out, "m0s") {
		out = strings.TrimSuffix(out, "0s")
	}
	if strings.HasSuffix(out, "h0m") {
		out = strings.TrimSuffix(out, "0m")
	}
	return out
}

func windowLabel(w time.Duration) string {
	switch w {
	case 24 * time.Hour:
		return "day"
	case time.Hour:
		return "hour"
	case 7 * 24 * time.Hour:
		return "week"
	}
	return shortDuration(w) + " window"
}

func pct(x float64) string {
	return fmt.Sprintf("%.0f%%", x*100)
}

func insufficient(bias domain.BiasKind, detail string) domain.BiasVerdict {
	return domain.NotDetected(fmt.Sprintf("Not enough data to assess %s: %s.", bias.Label(), detail))
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return math.Inf(1)
	}
	return num / den
}
