package normalizer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// unix en milisegundos a partir de este valor (≈ 2001-09-09 en segundos).
const unixMillisThreshold = 1_000_000_000_000

// Importes fuera de este rango se rechazan: suman sin overflow y caben en decimal.
const maxAmount = 1e15

var errEmpty = errors.New("empty value")

// parseTimestamp acepta los layouts soportados y epoch en segundos o milisegundos.
// Los timestamps sin zona se interpretan en UTC.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errEmpty
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		if n >= unixMillisThreshold {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseSide normaliza buy/sell/long/short. repaired=true si no venía en forma canónica.
func parseSide(s string) (side string, repaired bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return "buy", false, nil
	case "sell":
		return "sell", false, nil
	case "long", "b", "bid":
		return "buy", true, nil
	case "short", "s", "ask":
		return "sell", true, nil
	case "":
		return "", false, errEmpty
	}
	return "", false, fmt.Errorf("unrecognized side %q", s)
}

// parseMoney interpreta importes tipo "1,234.50", "$-12", "(12.50)".
// repaired=true si hubo que limpiar el string.
func parseMoney(s string) (v float64, repaired bool, err error) {
	if s == "" {
		return 0, false, errEmpty
	}
	clean := s
	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
		negative = true
	}
	clean = strings.NewReplacer("$", "", ",", "", " ", "").Replace(clean)
	repaired = clean != s

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, false, fmt.Errorf("unparseable amount %q", s)
	}
	if negative {
		d = d.Neg()
	}
	v = d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) || math.Abs(v) >= maxAmount {
		return 0, false, fmt.Errorf("amount %q out of range", s)
	}
	return v, repaired, nil
}

// parseQuantity exige un número distinto de cero; negativo se repara a valor absoluto.
func parseQuantity(s string) (v float64, repaired bool, err error) {
	v, repaired, err = parseMoney(s)
	if err != nil {
		return 0, false, err
	}
	if v == 0 {
		return 0, false, errors.New("zero quantity")
	}
	if v < 0 {
		return -v, true, nil
	}
	return v, repaired, nil
}
