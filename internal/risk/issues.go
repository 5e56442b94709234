package risk

import (
	"fmt"
	"strings"

	"github.com/iwvelando/loan-risk/internal/borrower"
)

// FieldIssue describes a numeric field that was defaulted during evaluation.
type FieldIssue struct {
	Field     string  `json:"field"`
	Value     string  `json:"value,omitempty"`
	Defaulted float64 `json:"defaulted"`
	Reason    string  `json:"reason"`
}

func (i FieldIssue) String() string {
	return fmt.Sprintf("%s: %s, defaulted to %g", i.Field, i.Reason, i.Defaulted)
}

const (
	issueMissing    = "missing"
	issueNotNumeric = "not a number"
)

func newFieldIssue(record borrower.Record, field string, fallback float64) FieldIssue {
	raw, present := record.Get(field)
	reason := issueNotNumeric
	if !present || strings.TrimSpace(raw) == "" {
		reason = issueMissing
	}
	return FieldIssue{
		Field:     field,
		Value:     raw,
		Defaulted: fallback,
		Reason:    reason,
	}
}
