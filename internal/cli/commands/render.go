package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/paulmach/orb"

	"github.com/mapframe-labs/mapframe/pkg/frame"
	"github.com/mapframe-labs/mapframe/pkg/geom"
)

// renderFrame prints a frame as a bordered terminal table.
func renderFrame(w io.Writer, f *frame.Frame) {
	cols := f.Columns()
	if len(cols) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for row := 0; row < f.NumRows(); row++ {
		r := make(table.Row, len(cols))
		for i, col := range cols {
			r[i] = formatCell(f.Value(col, row))
		}
		t.AppendRow(r)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", f.NumRows())
}

// writeFrameCSV writes a frame as comma-delimited CSV with a header row.
func writeFrameCSV(w io.Writer, f *frame.Frame) error {
	writer := csv.NewWriter(w)
	cols := f.Columns()
	if err := writer.Write(cols); err != nil {
		return err
	}

	record := make([]string, len(cols))
	for row := 0; row < f.NumRows(); row++ {
		for i, col := range cols {
			record[i] = formatCell(f.Value(col, row))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case orb.Geometry:
		return geom.EncodeWKT(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
