package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/iwvelando/loan-risk/internal/borrower"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := "Name,LoanAmount,Income\n" +
		"Jane,1000,5000\n" +
		"\n" +
		"  ,  ,\n" +
		"\"Doe, John\",2000,\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "LoanAmount", "Income"}, table.Fields)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Jane", table.Rows[0].Name())
	assert.Equal(t, "Doe, John", table.Rows[1].Name())

	income, ok := table.Rows[1].Get(borrower.FieldIncome)
	assert.True(t, ok)
	assert.Equal(t, "", income)
}

func TestParseCSVDelimiterOnlyRows(t *testing.T) {
	input := ",,,\n" +
		"Name,LoanAmount,Income\n" +
		",,\n" +
		"Jane,1000,5000\n" +
		", , \n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "LoanAmount", "Income"}, table.Fields)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Jane", table.Rows[0].Name())
}

func TestParseCSVHeaderOnly(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("\ufeffname , loanamount\nAnn,10\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "loanamount"}, table.Fields)

	v, ok := table.Rows[0].Get(borrower.FieldLoanAmount)
	assert.True(t, ok)
	assert.Equal(t, "10", v)
}

func TestParseCSVRaggedRows(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("Name,LoanAmount,Income\nShort,5\nLong,1,2,3\n"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	_, ok := table.Rows[0].Get(borrower.FieldIncome)
	assert.False(t, ok)
	assert.Equal(t, 3, table.Rows[1].Len())
}

func TestParseCSVReadError(t *testing.T) {
	_, err := ParseCSV(iotest.ErrReader(errors.New("disk gone")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse CSV")
	assert.Contains(t, err.Error(), "disk gone")
}

func TestParseCSVTestdata(t *testing.T) {
	table, err := ReadFile(context.Background(), "testdata/borrowers.csv", nil)
	require.NoError(t, err)

	assert.Len(t, table.Fields, 8)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"Harbor Point LLC", "Redwood Partners, LP", "A"},
		[]string{table.Rows[0].Name(), table.Rows[1].Name(), table.Rows[2].Name()})
}
