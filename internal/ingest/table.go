// Package ingest turns borrower uploads (CSV tables, JSON payloads and PDF
// documents handed to the extraction backend) into tables of borrower
// records ready for validation.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/loan-risk/internal/borrower"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are neither CSV nor PDF.
	ErrUnsupportedFormat = errors.New("unsupported file type, expected .csv or .pdf")

	// ErrNoExtractor is returned when a PDF arrives and no extraction backend
	// is configured.
	ErrNoExtractor = errors.New("no PDF extraction backend configured")
)

// Table is a parsed batch: the declared header and the rows in source order.
type Table struct {
	Fields []string
	Rows   []borrower.Record
}

// Extractor turns a PDF document into borrower rows.
type Extractor interface {
	Extract(ctx context.Context, filename string, r io.Reader) (Table, error)
}

// Decode parses an upload according to its file extension. PDF documents are
// forwarded to extractor, which may be nil when no backend is configured.
func Decode(ctx context.Context, filename string, r io.Reader, extractor Extractor) (Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".pdf":
		if extractor == nil {
			return Table{}, ErrNoExtractor
		}
		return extractor.Extract(ctx, filename, r)
	default:
		return Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// ReadFile opens path and decodes it with Decode.
func ReadFile(ctx context.Context, path string, extractor Extractor) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open borrower file: %w", err)
	}
	defer f.Close()

	return Decode(ctx, filepath.Base(path), f, extractor)
}

// unionFields returns every column of rows in first-seen order.
func unionFields(rows []borrower.Record) []string {
	seen := make(map[string]struct{})
	var fields []string
	for _, row := range rows {
		for _, column := range row.Columns() {
			if _, ok := seen[column]; ok {
				continue
			}
			seen[column] = struct{}{}
			fields = append(fields, column)
		}
	}
	return fields
}
