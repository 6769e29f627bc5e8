package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ReadCSV parses a header-first CSV stream into a frame, inferring each
// column's type from its values: a column where every non-empty cell parses
// as an integer becomes Int, then Float, Bool, Time, and finally String.
// Empty cells decode to nil.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cells := make([][]string, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		for i, cell := range record {
			cells[i] = append(cells[i], cell)
		}
	}

	f := New()
	for i, name := range header {
		typ := inferType(cells[i])
		values := make([]any, len(cells[i]))
		for j, cell := range cells[i] {
			v, err := parseCell(cell, typ)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, j, err)
			}
			values[j] = v
		}
		if err := f.Add(&Series{Name: name, Type: typ, Values: values}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

var csvTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func inferType(cells []string) Type {
	candidates := []Type{Int, Float, Bool, Time}
	seen := false
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		seen = true
		candidates = filterTypes(candidates, cell)
		if len(candidates) == 0 {
			return String
		}
	}
	if !seen {
		return String
	}
	return candidates[0]
}

func filterTypes(candidates []Type, cell string) []Type {
	var kept []Type
	for _, t := range candidates {
		if _, err := parseCell(cell, t); err == nil {
			kept = append(kept, t)
		}
	}
	return kept
}

func parseCell(cell string, typ Type) (any, error) {
	if cell == "" {
		return nil, nil
	}
	switch typ {
	case Int:
		return strconv.ParseInt(cell, 10, 64)
	case Float:
		return strconv.ParseFloat(cell, 64)
	case Bool:
		switch strings.ToLower(cell) {
		case "t", "true":
			return true, nil
		case "f", "false":
			return false, nil
		}
		return nil, fmt.Errorf("not a boolean: %q", cell)
	case Time:
		for _, layout := range csvTimeLayouts {
			if ts, err := time.Parse(layout, cell); err == nil {
				return ts, nil
			}
		}
		return nil, fmt.Errorf("not a timestamp: %q", cell)
	default:
		return cell, nil
	}
}
