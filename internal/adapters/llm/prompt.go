package llm

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

const systemPrompt = "You are a trading psychology coach. You review a trader's behavioural bias report " +
	"and reply with short, concrete, actionable tips. One tip per line, no preamble, no disclaimers. " +
	"Base every tip only on the data given."

func buildMessages(result domain.AnalysisResult, maxTips int) []message {
	return []message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt(result, maxTips)},
	}
}

func userPrompt(result domain.AnalysisResult, maxTips int) string {
	var b strings.Builder
	md := result.Metadata
	fmt.Fprintf(&b, "Trades analysed: %d. Net profit: %.2f. Final balance: %.2f.\n",
		md.TotalTrades, md.NetProfit, md.AccountBalance)

	detected := result.Biases.Detected()
	if len(detected) == 0 {
		b.WriteString("No behavioural bias was detected.\n")
	} else {
		b.WriteString("Detected biases:\n")
		for _, k := range detected {
			v := result.Biases.Get(k)
			fmt.Fprintf(&b, "- %s: %s", k.Label(), v.Summary)
			if v.Metric != "" {
				fmt.Fprintf(&b, " [%s]", v.Metric)
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "Write at most %d tips to help this trader reset.", maxTips)
	return b.String()
}

// ParseTips parte la respuesta del modelo en tips, quitando viñetas y numeración.
func ParseTips(content string, maxTips int) []string {
	var tips []string
	for line := range strings.Lines(content) {
		tip := stripBullet(strings.TrimSpace(line))
		if tip == "" {
			continue
		}
		tips = append(tips, tip)
		if maxTips > 0 && len(tips) == maxTips {
			break
		}
	}
	return tips
}

func stripBullet(s string) string {
	s = strings.TrimLeft(s, "-*•· \t")
	// "1." / "2)" / "3:"
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')' || s[i] == ':') {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	return strings.Trim(s, "*")
}
