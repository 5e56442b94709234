// Package risk computes the standard commercial-lending ratios for a borrower
// and classifies the borrower into a risk tier.
package risk

import (
	"encoding/json"

	"github.com/iwvelando/loan-risk/internal/borrower"
	"github.com/iwvelando/loan-risk/pkg/constants"
	"github.com/iwvelando/loan-risk/pkg/mathutil"
)

// Tier is a borrower risk classification.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Ratios holds the financial ratios derived from one borrower. Percentage
// ratios (LTV, LTC, DebtYield) are expressed in percent.
type Ratios struct {
	LTV       float64 `json:"ltv"`
	LTC       float64 `json:"ltc"`
	DSCR      float64 `json:"dscr"`
	DebtYield float64 `json:"debtYield"`
}

// MarshalJSON encodes non-finite ratios as null, which encoding/json cannot
// represent as numbers.
func (r Ratios) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		LTV       *float64 `json:"ltv"`
		LTC       *float64 `json:"ltc"`
		DSCR      *float64 `json:"dscr"`
		DebtYield *float64 `json:"debtYield"`
	}{
		LTV:       finiteOrNil(r.LTV),
		LTC:       finiteOrNil(r.LTC),
		DSCR:      finiteOrNil(r.DSCR),
		DebtYield: finiteOrNil(r.DebtYield),
	})
}

func finiteOrNil(v float64) *float64 {
	if !mathutil.IsFinite(v) {
		return nil
	}
	return &v
}

// Result is the evaluation outcome for one borrower.
type Result struct {
	Name    string   `json:"name"`
	Risk    Tier     `json:"risk"`
	Reasons []string `json:"reasons"`
	Ratios  Ratios   `json:"ratios"`
}

// Triggered returns the number of risk checks the borrower failed.
func (r Result) Triggered() int {
	return len(r.Reasons)
}

// Reasons emitted by the risk checks.
const (
	ReasonPoorCredit       = "Poor credit score"
	ReasonHighLoanToIncome = "High loan-to-income ratio"
	ReasonHighLTV          = "LTV above 80%"
	ReasonHighLTC          = "LTC above 85%"
	ReasonLowDSCR          = "DSCR below 1.2"
	ReasonLowDebtYield     = "Debt Yield below 10%"
)

// financials are the numeric inputs of one borrower after defaults.
type financials struct {
	LoanAmount         float64
	AssetValue         float64
	TotalCost          float64
	NetOperatingIncome float64
	AnnualDebtService  float64
	CreditScore        float64
	Income             float64
}

type check struct {
	name      string
	reason    string
	triggered func(f financials, r Ratios) bool
}

// checks run in this order; every check is always evaluated.
var checks = []check{
	{
		name:   "credit_score",
		reason: ReasonPoorCredit,
		triggered: func(f financials, _ Ratios) bool {
			return f.CreditScore < constants.MinimumCreditScore
		},
	},
	{
		name:   "loan_to_income",
		reason: ReasonHighLoanToIncome,
		triggered: func(f financials, _ Ratios) bool {
			// Income of exactly zero yields +Inf (flagged) or NaN (not flagged).
			return f.LoanAmount/f.Income > constants.MaxLoanToIncome
		},
	},
	{
		name:   "ltv",
		reason: ReasonHighLTV,
		triggered: func(_ financials, r Ratios) bool {
			return r.LTV > constants.MaxLTV
		},
	},
	{
		name:   "ltc",
		reason: ReasonHighLTC,
		triggered: func(_ financials, r Ratios) bool {
			return r.LTC > constants.MaxLTC
		},
	},
	{
		name:   "dscr",
		reason: ReasonLowDSCR,
		triggered: func(_ financials, r Ratios) bool {
			return r.DSCR < constants.MinDSCR
		},
	},
	{
		name:   "debt_yield",
		reason: ReasonLowDebtYield,
		triggered: func(_ financials, r Ratios) bool {
			return r.DebtYield < constants.MinDebtYield
		},
	},
}

// numericFields lists the numeric inputs with the value substituted when a
// field is absent or unparseable.
var numericFields = []struct {
	field    string
	fallback float64
	assign   func(f *financials, v float64)
}{
	{borrower.FieldLoanAmount, 0, func(f *financials, v float64) { f.LoanAmount = v }},
	{borrower.FieldAssetValue, 0, func(f *financials, v float64) { f.AssetValue = v }},
	{borrower.FieldTotalCost, 0, func(f *financials, v float64) { f.TotalCost = v }},
	{borrower.FieldNetOperatingIncome, 0, func(f *financials, v float64) { f.NetOperatingIncome = v }},
	{borrower.FieldAnnualDebtService, 0, func(f *financials, v float64) { f.AnnualDebtService = v }},
	{borrower.FieldCreditScore, 0, func(f *financials, v float64) { f.CreditScore = v }},
	{borrower.FieldIncome, 1, func(f *financials, v float64) { f.Income = v }},
}

// CalculateRatios computes LTV, LTC, DSCR and Debt Yield. A zero denominator
// yields a ratio of 0.
func CalculateRatios(loanAmount, assetValue, totalCost, netOperatingIncome, annualDebtService float64) Ratios {
	return Ratios{
		LTV:       mathutil.CalculatePercentage(loanAmount, assetValue),
		LTC:       mathutil.CalculatePercentage(loanAmount, totalCost),
		DSCR:      mathutil.SafeDivide(netOperatingIncome, annualDebtService),
		DebtYield: mathutil.CalculatePercentage(netOperatingIncome, loanAmount),
	}
}

// Classify maps the number of triggered checks to a tier.
func Classify(triggered int) Tier {
	switch {
	case triggered >= constants.HighRiskTriggerCount:
		return TierHigh
	case triggered >= 1:
		return TierMedium
	default:
		return TierLow
	}
}

// Evaluate computes the ratios and risk tier for one borrower. It never
// fails: absent or non-numeric fields default to 0, and Income to 1.
func Evaluate(record borrower.Record) Result {
	result, _ := evaluate(record)
	return result
}

// EvaluateStrict returns the same Result as Evaluate together with an issue
// for every numeric field that had to be defaulted.
func EvaluateStrict(record borrower.Record) (Result, []FieldIssue) {
	return evaluate(record)
}

func evaluate(record borrower.Record) (Result, []FieldIssue) {
	var (
		f      financials
		issues []FieldIssue
	)
	for _, nf := range numericFields {
		v, ok := record.Float(nf.field)
		if !ok {
			v = nf.fallback
			issues = append(issues, newFieldIssue(record, nf.field, nf.fallback))
		}
		nf.assign(&f, v)
	}

	ratios := CalculateRatios(f.LoanAmount, f.AssetValue, f.TotalCost, f.NetOperatingIncome, f.AnnualDebtService)

	reasons := make([]string, 0, len(checks))
	for _, c := range checks {
		if c.triggered(f, ratios) {
			reasons = append(reasons, c.reason)
		}
	}

	return Result{
		Name:    record.Name(),
		Risk:    Classify(len(reasons)),
		Reasons: reasons,
		Ratios:  ratios,
	}, issues
}

// checkName returns the metric label of the check that emits reason.
func checkName(reason string) string {
	for _, c := range checks {
		if c.reason == reason {
			return c.name
		}
	}
	return "unknown"
}
