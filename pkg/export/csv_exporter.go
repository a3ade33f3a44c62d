package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a column-ordered table. Rows are keyed by header name so
// callers can build them straight from domain structs without caring
// about column order.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// row materializes one record in header order. Missing cells render
// empty rather than failing, partial records are common in enrollment
// data pulled mid-term.
func (d Dataset) row(values map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		record[i] = values[h]
	}
	return record
}

// CSVExporter renders a Dataset as RFC 4180 CSV.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset, header row first.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv export: dataset has no headers")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("csv export: header row: %w", err)
	}
	for i, values := range data.Rows {
		if err := w.Write(data.row(values)); err != nil {
			return nil, fmt.Errorf("csv export: row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv export: flush: %w", err)
	}
	return buf.Bytes(), nil
}
