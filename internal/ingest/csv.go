package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/loan-risk/internal/borrower"
)

const utf8BOM = "\ufeff"

// ParseCSV reads a header-driven CSV table. The first non-blank line is the
// header; blank lines are skipped; rows shorter than the header leave their
// trailing columns absent. An empty input yields an empty Table.
func ParseCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var table Table
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to parse CSV: %w", err)
		}
		if blankRow(cells) {
			continue
		}

		if table.Fields == nil {
			table.Fields = normalizeHeader(cells)
			continue
		}
		table.Rows = append(table.Rows, borrower.FromRow(table.Fields, cells))
	}
	return table, nil
}

func normalizeHeader(cells []string) []string {
	header := make([]string, len(cells))
	for i, cell := range cells {
		if i == 0 {
			cell = strings.TrimPrefix(cell, utf8BOM)
		}
		header[i] = strings.TrimSpace(cell)
	}
	return header
}

// blankRow reports whether every cell is whitespace. Delimiter-only lines
// such as ",,," count as blank and are skipped like empty lines.
func blankRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
