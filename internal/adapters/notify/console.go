package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Console implementa ports.Reporter para el comando analyze.
type Console struct {
	out      io.Writer
	table    bool
	examples int // evidencias por sesgo detectado; 0 = ninguna
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(table bool, examples int) *Console {
	return &Console{out: os.Stdout, table: table, examples: examples}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, table bool, examples int) *Console {
	return &Console{out: w, table: table, examples: examples}
}

// Report imprime el resultado en el modo configurado.
func (c *Console) Report(_ context.Context, result domain.AnalysisResult, advice []string) error {
	if result.Status == domain.StatusError {
		fmt.Fprintf(c.out, "%s: analysis failed: %s\n", result.Metadata.Filename, result.Message)
		return nil
	}

	if c.table {
		c.printFull(result)
	} else {
		c.printCompact(result)
	}
	c.printAdvice(advice)
	return nil
}

// printCompact imprime una línea de resumen y una por sesgo detectado.
func (c *Console) printCompact(res domain.AnalysisResult) {
	m := res.Metadata
	detected := res.Biases.Detected()

	fmt.Fprintf(c.out, "%s → %d trades | net %s | balance %s | biases:%d\n",
		m.Filename, m.TotalTrades, money(m.NetProfit), money(m.AccountBalance), len(detected))
	for _, k := range detected {
		v := res.Biases.Get(k)
		fmt.Fprintf(c.out, "  ! %s: %s\n", k.Label(), v.Metric)
	}
}

// printFull imprime la cabecera, la tabla de sesgos y la evidencia.
func (c *Console) printFull(res domain.AnalysisResult) {
	m := res.Metadata
	fmt.Fprintf(c.out, "\n=== %s ===\n", m.Filename)
	fmt.Fprintf(c.out, "  Trades:           %d (dropped %d, repaired %d)\n", m.TotalTrades, m.DroppedRows, m.RepairedRows)
	fmt.Fprintf(c.out, "  Starting balance: %s (%s)\n", money(m.StartingBalance), m.StartingBalanceSource)
	fmt.Fprintf(c.out, "  Account balance:  %s\n", money(m.AccountBalance))
	fmt.Fprintf(c.out, "  Net profit:       %s\n", money(m.NetProfit))
	fmt.Fprintf(c.out, "  Holding time:     %s\n\n", m.HoldingSource)

	table := tablewriter.NewWriter(c.out)
	table.Header("Bias", "Detected", "Metric", "Evidence")
	for _, k := range domain.AllBiases {
		v := res.Biases.Get(k)
		mark := "no"
		if v.Detected {
			mark = "YES"
		}
		metric := v.Metric
		if metric == "" {
			metric = "-"
		}
		table.Append(k.Label(), mark, truncate(metric, 48), fmt.Sprintf("%d", len(v.Examples)))
	}
	table.Render()

	for _, k := range domain.AllBiases {
		v := res.Biases.Get(k)
		if !v.Detected {
			continue
		}
		fmt.Fprintf(c.out, "\n  --- %s ---\n", strings.ToUpper(k.Label()))
		fmt.Fprintf(c.out, "  %s\n", v.Summary)
		for i, ex := range v.Examples {
			if i >= c.examples {
				if rest := len(v.Examples) - c.examples; rest > 0 {
					fmt.Fprintf(c.out, "     ... %d more\n", rest)
				}
				break
			}
			fmt.Fprintf(c.out, "     %s %-8s %s\n", ex.Date, ex.TradeID, ex.Reason)
		}
	}
	fmt.Fprintln(c.out)
}

func (c *Console) printAdvice(advice []string) {
	if len(advice) == 0 {
		return
	}
	fmt.Fprintf(c.out, "  --- ADVICE ---\n")
	for i, tip := range advice {
		fmt.Fprintf(c.out, "  %d. %s\n", i+1, tip)
	}
	fmt.Fprintln(c.out)
}

// JSON implementa ports.Reporter escribiendo el contrato de respuesta.
type JSON struct {
	out    io.Writer
	indent bool
}

// NewJSON crea un reporter JSON sobre w.
func NewJSON(w io.Writer, indent bool) *JSON {
	return &JSON{out: w, indent: indent}
}

// Report escribe {AnalysisResult..., "ai_advice": [...]}.
func (j *JSON) Report(_ context.Context, result domain.AnalysisResult, advice []string) error {
	if advice == nil {
		advice = []string{}
	}
	payload := struct {
		domain.AnalysisResult
		AIAdvice []string `json:"ai_advice"`
	}{result, advice}

	enc := json.NewEncoder(j.out)
	if j.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("notify.JSON.Report: %w", err)
	}
	return nil
}

// --- helpers ---

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
