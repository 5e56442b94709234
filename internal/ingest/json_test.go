package ingest

import (
	"errors"
	"testing"

	"github.com/iwvelando/loan-risk/internal/borrower"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordsJSONShapes(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		fields   []string
		rowCount int
	}{
		{
			name:     "Bare array",
			payload:  `[{"Name": "A", "LoanAmount": 10}, {"Name": "B", "Income": "5"}]`,
			fields:   []string{"LoanAmount", "Name", "Income"},
			rowCount: 2,
		},
		{
			name:     "Table with declared fields",
			payload:  `{"fields": ["name", "loanamount"], "rows": [{"Name": "A"}]}`,
			fields:   []string{"name", "loanamount"},
			rowCount: 1,
		},
		{
			name:     "Table with declared fields and no rows",
			payload:  `{"fields": ["Name"], "rows": []}`,
			fields:   []string{"Name"},
			rowCount: 0,
		},
		{
			name:     "Table without declared fields",
			payload:  `{"rows": [{"CreditScore": 700}]}`,
			fields:   []string{"CreditScore"},
			rowCount: 1,
		},
		{
			name:     "Extraction answer",
			payload:  `{"text": "Loan Amount: $250,000", "fields": {"LoanAmount": "250000"}}`,
			fields:   []string{"LoanAmount"},
			rowCount: 1,
		},
		{
			name:     "Single record",
			payload:  `{"Name": "Solo", "Income": 1000, "Verified": true, "Notes": null}`,
			fields:   []string{"Income", "Name", "Verified"},
			rowCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseRecordsJSON([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.fields, table.Fields)
			assert.Len(t, table.Rows, tt.rowCount)
		})
	}
}

func TestParseRecordsJSONPreservesRowOrder(t *testing.T) {
	table, err := ParseRecordsJSON([]byte(`[{"Name":"c"},{"Name":"a"},{"Name":"b"}]`))
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "c", table.Rows[0].Name())
	assert.Equal(t, "a", table.Rows[1].Name())
	assert.Equal(t, "b", table.Rows[2].Name())
}

func TestParseRecordsJSONNumbers(t *testing.T) {
	table, err := ParseRecordsJSON([]byte(`{"LoanAmount": 250000.50, "CreditScore": 1e3}`))
	require.NoError(t, err)

	v, _ := table.Rows[0].Get(borrower.FieldLoanAmount)
	assert.Equal(t, "250000.50", v, "numbers keep their literal form")

	score, ok := table.Rows[0].Float(borrower.FieldCreditScore)
	assert.True(t, ok)
	assert.Equal(t, 1000.0, score)
}

func TestParseRecordsJSONInvalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"Not JSON", `{"Name": `},
		{"Scalar document", `42`},
		{"Nested object value", `{"Name": {"first": "A"}}`},
		{"Array of scalars", `[1, 2, 3]`},
		{"Rows not objects", `{"rows": ["a"]}`},
		{"Fields not strings", `{"fields": [1], "rows": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecordsJSON([]byte(tt.payload))
			require.Error(t, err)

			var payloadErr *PayloadError
			assert.True(t, errors.As(err, &payloadErr), "expected *PayloadError, got %T", err)
		})
	}
}
