package advice

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Rules es un Advisor determinista, sin red: un tip por sesgo detectado en
// orden canónico, más uno de cierre según el resultado neto.
type Rules struct {
	maxTips       int
	revengeWindow time.Duration
}

// NewRules crea el advisor. maxTips <= 0 usa 3.
func NewRules(maxTips int, policy domain.Policy) *Rules {
	if maxTips <= 0 {
		maxTips = 3
	}
	return &Rules{maxTips: maxTips, revengeWindow: policy.RevengeWindow}
}

// Advise implementa ports.Advisor. Nunca falla.
func (r *Rules) Advise(_ context.Context, result domain.AnalysisResult) ([]string, error) {
	tips := make([]string, 0, r.maxTips)
	for _, k := range result.Biases.Detected() {
		tips = append(tips, r.tipFor(k))
	}
	switch {
	case len(tips) == 0:
		tips = append(tips, "No bias stands out. Keep your current process and review it again after your next 50 trades.")
	case result.Metadata.NetProfit < 0:
		tips = append(tips, "Cut your size in half until you string together a week that follows your plan.")
	}
	if len(tips) > r.maxTips {
		tips = tips[:r.maxTips]
	}
	return tips, nil
}

func (r *Rules) tipFor(k domain.BiasKind) string {
	switch k {
	case domain.BiasOvertrading:
		return "Set a daily trade cap at your usual count and stop for the day once you hit it."
	case domain.BiasLossAversion:
		return "Place the stop before you enter and never widen it. A loser does not deserve more size or more time than a winner."
	case domain.BiasRevenge:
		return fmt.Sprintf("After any loss, wait %s before the next entry and keep the next trade at your normal size.",
			shortWindow(r.revengeWindow))
	case domain.BiasMonteCarlo:
		return "Streaks do not make a reversal due. Size each trade from your plan, not from the last run of results."
	case domain.BiasDisposition:
		return "Let winners reach their target. Use a trailing stop instead of closing early to lock in a small gain."
	case domain.BiasRecency:
		return "Judge your edge on the last 20 trades, not the last one. Keep size fixed for a full week."
	}
	return "Review this pattern in your trading journal."
}

func shortWindow(d time.Duration) string {
	if d <= 0 {
		d = 30 * time.Minute
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d/time.Hour))
	}
	return fmt.Sprintf("%d minutes", int(d.Round(time.Minute)/time.Minute))
}
