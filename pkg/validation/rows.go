package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/loan-risk/internal/borrower"
)

// ErrEmptyBatch is returned when a batch declares the required columns but
// carries no rows.
var ErrEmptyBatch = errors.New("no borrower rows to evaluate")

// MissingColumnsError reports required columns absent from a batch header.
type MissingColumnsError struct {
	// Missing lists the absent required columns in canonical order.
	Missing []string
	// Found is the declared header, verbatim.
	Found []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s (found: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// MissingColumns returns the required columns that no declared column matches
// case-insensitively, in canonical order.
func MissingColumns(declared []string) []string {
	present := make(map[string]struct{}, len(declared))
	for _, column := range declared {
		if canonical, ok := borrower.Canonical(column); ok {
			present[canonical] = struct{}{}
		}
	}

	var missing []string
	for _, required := range borrower.RequiredColumns() {
		if _, ok := present[required]; !ok {
			missing = append(missing, required)
		}
	}
	return missing
}

// ValidateBatch decides whether a batch may be evaluated. The header is
// checked before the rows, so a header-only file reports ErrEmptyBatch only
// when its header is complete.
func ValidateBatch(declared []string, rows []borrower.Record) error {
	if missing := MissingColumns(declared); len(missing) > 0 {
		return &MissingColumnsError{
			Missing: missing,
			Found:   append([]string(nil), declared...),
		}
	}
	if len(rows) == 0 {
		return ErrEmptyBatch
	}
	return nil
}
