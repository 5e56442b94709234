// Package borrower defines the borrower record handed to the risk engine by
// the ingestion collaborators, and the fixed set of columns it is matched
// against.
package borrower

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Canonical column names.
const (
	FieldName               = "Name"
	FieldLoanAmount         = "LoanAmount"
	FieldAssetValue         = "AssetValue"
	FieldTotalCost          = "TotalCost"
	FieldNetOperatingIncome = "NetOperatingIncome"
	FieldAnnualDebtService  = "AnnualDebtService"
	FieldCreditScore        = "CreditScore"
	FieldIncome             = "Income"
)

var requiredColumns = []string{
	FieldName,
	FieldLoanAmount,
	FieldAssetValue,
	FieldTotalCost,
	FieldNetOperatingIncome,
	FieldAnnualDebtService,
	FieldCreditScore,
	FieldIncome,
}

// canonicalByLower maps the lowercase form of every required column to its
// canonical spelling.
var canonicalByLower = func() map[string]string {
	m := make(map[string]string, len(requiredColumns))
	for _, column := range requiredColumns {
		m[strings.ToLower(column)] = column
	}
	return m
}()

// RequiredColumns returns the required columns in their canonical order.
func RequiredColumns() []string {
	return append([]string(nil), requiredColumns...)
}

// Canonical returns the canonical spelling of column when it names a required
// column, ignoring case.
func Canonical(column string) (string, bool) {
	canonical, ok := canonicalByLower[strings.ToLower(column)]
	return canonical, ok
}

// Record is one borrower row. Required columns are stored under their
// canonical names; any other column is kept verbatim. A Record is never
// mutated after construction.
type Record struct {
	columns []string
	values  map[string]string
}

// NewRecord builds a Record from raw column values, ordering columns by key.
// When two raw keys fold to the same required column, the canonically spelled
// key wins, otherwise the lexically first key does.
func NewRecord(raw map[string]string) Record {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	r := Record{values: make(map[string]string, len(raw))}
	for _, key := range keys {
		r.set(key, raw[key])
	}
	return r
}

// FromRow builds a Record from a header and the matching cell values, as read
// from a table. Cells beyond the header are dropped and missing trailing cells
// leave their columns absent.
func FromRow(header, cells []string) Record {
	r := Record{values: make(map[string]string, len(header))}
	for i, column := range header {
		if i >= len(cells) {
			break
		}
		if column == "" {
			continue
		}
		r.set(column, cells[i])
	}
	return r
}

// FromMap builds a Record from a decoded JSON object. Numbers are rendered to
// their shortest decimal form, booleans to "true"/"false", and null values are
// treated as absent. Columns are ordered by key.
func FromMap(raw map[string]interface{}) Record {
	converted := make(map[string]string, len(raw))
	for key, value := range raw {
		s, ok := stringify(value)
		if !ok {
			continue
		}
		converted[key] = s
	}
	return NewRecord(converted)
}

// set stores value under the canonical form of column. A non-canonical
// spelling never replaces a value that is already present.
func (r *Record) set(column, value string) {
	key := column
	if canonical, ok := Canonical(column); ok {
		key = canonical
	}
	if _, exists := r.values[key]; exists {
		if column != key {
			return
		}
	} else {
		r.columns = append(r.columns, key)
	}
	r.values[key] = value
}

// Get returns the raw value stored for field, matching required columns case
// insensitively.
func (r Record) Get(field string) (string, bool) {
	if canonical, ok := Canonical(field); ok {
		field = canonical
	}
	v, ok := r.values[field]
	return v, ok
}

// Name returns the borrower name verbatim, or "" when absent.
func (r Record) Name() string {
	name, _ := r.Get(FieldName)
	return name
}

// Float parses field as a finite float64. ok is false when the field is
// absent, blank, or not a finite number.
func (r Record) Float(field string) (value float64, ok bool) {
	raw, present := r.Get(field)
	if !present {
		return 0, false
	}
	return ParseNumber(raw)
}

// Columns returns the record's columns in the order they were first seen.
func (r Record) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Values returns a copy of the record's values keyed by column.
func (r Record) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Len returns the number of columns present on the record.
func (r Record) Len() int {
	return len(r.values)
}

// MarshalJSON encodes the record as a flat JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.values)
}

// ParseNumber parses a trimmed decimal numeric string. NaN, infinities and
// hexadecimal literals are rejected.
func ParseNumber(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || hexLiteral(trimmed) {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func hexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func stringify(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return fmt.Sprint(v), true
	}
}
