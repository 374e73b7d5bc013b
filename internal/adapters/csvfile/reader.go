package csvfile

// reader.go — texto delimitado → filas crudas keyed por header.
//
// El reader no interpreta columnas: solo limpia headers (espacios, BOM) y
// descarta filas en blanco. El mapeo de sinónimos vive en el normalizer.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Options configura el dialecto. El delimitador se configura, no se adivina.
type Options struct {
	Delimiter rune // default ','
	MaxRows   int  // 0 = sin límite
}

// Read parsea el upload completo. Un archivo sin header, o con un CSV roto
// (comillas sin cerrar), devuelve *domain.MalformedInputError.
func Read(r io.Reader, opts Options) ([]domain.RawRow, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1 // filas cortas o largas se toleran; el normalizer decide
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.NewMalformedInput("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("csvfile.Read: header: %w", malformed(err))
	}
	keys := cleanHeader(header)
	if len(keys) == 0 {
		return nil, domain.NewMalformedInput("header row has no column names")
	}

	var rows []domain.RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvfile.Read: %w", malformed(err))
		}
		if blank(rec) {
			continue
		}
		row := make(domain.RawRow, len(keys))
		for i, v := range rec {
			k, ok := keys[i]
			if !ok {
				continue
			}
			row[k] = strings.TrimSpace(v)
		}
		rows = append(rows, row)
		if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
			return nil, domain.NewMalformedInput("file exceeds %d rows", opts.MaxRows)
		}
	}
	return rows, nil
}

// cleanHeader devuelve índice → nombre. Headers vacíos se ignoran y ante
// nombres repetidos gana la primera columna.
func cleanHeader(header []string) map[int]string {
	keys := make(map[int]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" || seen[strings.ToLower(h)] {
			continue
		}
		seen[strings.ToLower(h)] = true
		keys[i] = h
	}
	return keys
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func malformed(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return domain.NewMalformedInput("invalid CSV at line %d: %v", pe.Line, pe.Err)
	}
	return domain.NewMalformedInput("invalid CSV: %v", err)
}
