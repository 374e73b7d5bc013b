package normalizer

import (
	"maps"
	"slices"
	"strings"
)

// Nombres canónicos de columna.
const (
	ColTimestamp = "timestamp"
	ColSide      = "side"
	ColQuantity  = "quantity"
	ColPnL       = "pnl"
	ColBalance   = "balance"
	ColID        = "id"
	ColOpenedAt  = "opened_at"
	ColSymbol    = "symbol"
)

// RequiredColumns son las columnas sin las que no hay análisis posible.
var RequiredColumns = []string{ColTimestamp, ColSide, ColQuantity, ColPnL}

// synonyms: header normalizado → columna canónica.
var synonyms = map[string]string{}

func init() {
	groups := map[string][]string{
		ColTimestamp: {"timestamp", "time", "date", "datetime", "executed_at", "exec_time", "close_time", "exit_time", "closed_at"},
		ColSide:      {"side", "direction", "action", "type", "buy_sell"},
		ColQuantity:  {"quantity", "qty", "size", "volume", "amount", "lots", "shares", "contracts"},
		ColPnL:       {"pnl", "profit_loss", "profit", "pl", "p/l", "p&l", "realized_pnl", "net_pnl", "realized_pl"},
		ColBalance:   {"balance", "balance_after", "equity", "account_balance", "account_equity"},
		ColID:        {"id", "trade_id", "order_id", "exec_id", "execution_id", "ticket"},
		ColOpenedAt:  {"opened_at", "open_time", "entry_time", "entry_timestamp", "opened"},
		ColSymbol:    {"symbol", "asset", "instrument", "ticker", "market"},
	}
	for canonical, names := range groups {
		for _, n := range names {
			synonyms[n] = canonical
		}
	}
}

// CanonicalColumn mapea un header arbitrario a su columna canónica.
// Case-insensitive; espacios y guiones cuentan como '_'.
func CanonicalColumn(header string) (string, bool) {
	key := normalizeHeader(header)
	c, ok := synonyms[key]
	return c, ok
}

func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.TrimPrefix(h, "\ufeff") // BOM de exports de Excel
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	return h
}

// canonicalize devuelve una copia de la fila con keys canónicas.
// Si dos headers mapean a la misma columna gana el primero no vacío en orden
// lexicográfico de header, para que el resultado no dependa del orden del map.
//
// Exports con columnas Date y Time separadas se unen en un solo timestamp.
func canonicalize(row map[string]string) map[string]string {
	out := make(map[string]string, len(row))
	var datePart, timePart string
	for _, k := range slices.Sorted(maps.Keys(row)) {
		v := row[k]
		c, ok := CanonicalColumn(k)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch normalizeHeader(k) {
		case "date":
			datePart = v
		case "time":
			timePart = v
		}
		if prev, exists := out[c]; exists && prev != "" {
			continue
		}
		out[c] = v
	}
	if joined, ok := joinDateTime(datePart, timePart); ok && out[ColTimestamp] == datePart {
		out[ColTimestamp] = joined
	}
	return out
}

// joinDateTime une "2025-04-07" + "09:30:00" cuando la fecha no trae hora.
func joinDateTime(date, clock string) (string, bool) {
	if date == "" || !strings.Contains(clock, ":") || strings.Contains(date, ":") {
		return "", false
	}
	return date + " " + clock, true
}
