package normalizer

// normalizer.go — filas crudas → TradeSeries canónica.
//
// Política:
//   - Archivo vacío, o un campo requerido ausente/ilegible en la mayoría de filas
//     → MalformedInputError (el archivo no es un historial de trades).
//   - Filas sueltas malas se descartan y se cuentan por motivo.
//   - Si tras descartar quedan < MinViableTrades → InsufficientDataError.
//   - Sin I/O: la lectura del archivo vive en adapters/csvfile.

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Motivos de descarte reportados en Report.DropReasons.
const (
	DropBadTimestamp = "bad_timestamp"
	DropBadSide      = "bad_side"
	DropBadQuantity  = "bad_quantity"
	DropBadPnL       = "bad_pnl"
	DropDuplicateID  = "duplicate_id"
)

// Report resume lo que hizo el normalizer con el archivo.
type Report struct {
	TotalRows   int
	Valid       int
	Dropped     int
	Repaired    int
	DropReasons map[string]int
}

// Normalizer convierte filas crudas en una TradeSeries.
type Normalizer struct {
	minViable int
}

// New crea un Normalizer con el mínimo viable de la policy.
func New(policy domain.Policy) *Normalizer {
	return &Normalizer{minViable: policy.MinViableTrades}
}

// rowResult es el resultado de parsear una fila.
type rowResult struct {
	trade    domain.Trade
	repaired bool
	failed   map[string]string // columna → motivo
}

// Normalize valida, repara y ordena las filas.
func (n *Normalizer) Normalize(rows []domain.RawRow) (domain.TradeSeries, Report, error) {
	report := Report{TotalRows: len(rows), DropReasons: map[string]int{}}
	if len(rows) == 0 {
		return domain.TradeSeries{}, report, domain.NewMalformedInput("file contains no trade rows")
	}

	results := make([]rowResult, len(rows))
	fieldFailures := make(map[string]int, len(RequiredColumns))
	for i, raw := range rows {
		results[i] = parseRow(i+1, canonicalize(raw))
		for col := range results[i].failed {
			fieldFailures[col]++
		}
	}

	// Un campo requerido roto en la mayoría de filas invalida el archivo entero.
	for _, col := range RequiredColumns {
		if failures := fieldFailures[col]; failures*2 > len(rows) {
			return domain.TradeSeries{}, report, domain.NewMalformedInput(
				"column %q missing or unparseable in %d of %d rows", col, failures, len(rows))
		}
	}

	trades := make([]domain.Trade, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, res := range results {
		if len(res.failed) > 0 {
			report.Dropped++
			for _, reason := range sortedReasons(res.failed) {
				report.DropReasons[reason]++
			}
			slog.Debug("dropping row", "row", res.trade.Row, "reasons", res.failed)
			continue
		}
		if seen[res.trade.ID] {
			report.Dropped++
			report.DropReasons[DropDuplicateID]++
			slog.Debug("dropping duplicate trade id", "row", res.trade.Row, "id", res.trade.ID)
			continue
		}
		seen[res.trade.ID] = true
		if res.repaired {
			report.Repaired++
		}
		trades = append(trades, res.trade)
	}

	report.Valid = len(trades)
	if len(trades) < n.minViable {
		return domain.TradeSeries{}, report, &domain.InsufficientDataError{
			Valid:    len(trades),
			Required: n.minViable,
			Dropped:  report.Dropped,
		}
	}

	series, err := domain.NewTradeSeries(trades)
	if err != nil {
		return domain.TradeSeries{}, report, fmt.Errorf("normalizer.Normalize: %w", err)
	}
	return series, report, nil
}

// parseRow parsea una fila ya canonicalizada. row es 1-based.
func parseRow(row int, cols map[string]string) rowResult {
	res := rowResult{failed: map[string]string{}}
	t := domain.Trade{Row: row, Symbol: cols[ColSymbol]}

	if id := cols[ColID]; id != "" {
		t.ID = id
	} else {
		t.ID = "row-" + strconv.Itoa(row)
	}

	ts, err := parseTimestamp(cols[ColTimestamp])
	if err != nil {
		res.failed[ColTimestamp] = DropBadTimestamp
	}
	t.Timestamp = ts

	side, fixed, err := parseSide(cols[ColSide])
	if err != nil {
		res.failed[ColSide] = DropBadSide
	}
	t.Side = domain.Side(side)
	res.repaired = res.repaired || fixed

	qty, fixed, err := parseQuantity(cols[ColQuantity])
	if err != nil {
		res.failed[ColQuantity] = DropBadQuantity
	}
	t.Quantity = qty
	res.repaired = res.repaired || fixed

	pnl, fixed, err := parseMoney(cols[ColPnL])
	if err != nil {
		res.failed[ColPnL] = DropBadPnL
	}
	t.PnL = pnl
	res.repaired = res.repaired || fixed

	// Opcionales: si no parsean se ignoran (y se cuenta como reparación).
	if raw := cols[ColBalance]; raw != "" {
		if bal, fixed, err := parseMoney(raw); err == nil {
			t.BalanceAfter, t.HasBalanceAfter = bal, true
			res.repaired = res.repaired || fixed
		} else {
			res.repaired = true
		}
	}
	if raw := cols[ColOpenedAt]; raw != "" {
		opened, err := parseTimestamp(raw)
		switch {
		case err != nil:
			res.repaired = true
		case !ts.IsZero() && opened.After(ts):
			res.repaired = true // apertura posterior al cierre: se descarta el campo
		default:
			t.OpenedAt, t.HasOpenedAt = opened, true
		}
	}

	res.trade = t
	return res
}

func sortedReasons(failed map[string]string) []string {
	out := make([]string, 0, len(failed))
	for _, r := range failed {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}
