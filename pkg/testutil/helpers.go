// Package testutil provides common utility functions for testing.
package testutil

import (
	"strconv"

	"github.com/iwvelando/loan-risk/internal/borrower"
	"github.com/iwvelando/loan-risk/internal/risk"
)

// Financials are the numeric inputs of a test borrower.
type Financials struct {
	LoanAmount         float64
	AssetValue         float64
	TotalCost          float64
	NetOperatingIncome float64
	AnnualDebtService  float64
	CreditScore        float64
	Income             float64
}

// Borrower builds a record carrying every required column.
func Borrower(name string, f Financials) borrower.Record {
	return borrower.NewRecord(map[string]string{
		borrower.FieldName:               name,
		borrower.FieldLoanAmount:         formatFloat(f.LoanAmount),
		borrower.FieldAssetValue:         formatFloat(f.AssetValue),
		borrower.FieldTotalCost:          formatFloat(f.TotalCost),
		borrower.FieldNetOperatingIncome: formatFloat(f.NetOperatingIncome),
		borrower.FieldAnnualDebtService:  formatFloat(f.AnnualDebtService),
		borrower.FieldCreditScore:        formatFloat(f.CreditScore),
		borrower.FieldIncome:             formatFloat(f.Income),
	})
}

// FindResult finds a result by borrower name.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(results []risk.Result, name string) *risk.Result {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
