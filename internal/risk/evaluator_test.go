package risk

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/iwvelando/loan-risk/internal/borrower"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lowRisk returns the fields of a borrower that passes every check.
func lowRisk() map[string]string {
	return map[string]string{
		"Name":               "Harbor Point LLC",
		"LoanAmount":         "700000",
		"AssetValue":         "1000000",
		"TotalCost":          "900000",
		"NetOperatingIncome": "120000",
		"AnnualDebtService":  "80000",
		"CreditScore":        "720",
		"Income":             "2000000",
	}
}

func with(base map[string]string, overrides map[string]string) borrower.Record {
	fields := make(map[string]string, len(base))
	for k, v := range base {
		fields[k] = v
	}
	for k, v := range overrides {
		if v == "<absent>" {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}
	return borrower.NewRecord(fields)
}

func TestEvaluateLowRisk(t *testing.T) {
	result := Evaluate(with(lowRisk(), nil))

	assert.Equal(t, "Harbor Point LLC", result.Name)
	assert.Equal(t, TierLow, result.Risk)
	assert.Empty(t, result.Reasons)
	assert.NotNil(t, result.Reasons, "reasons encode as [] rather than null")

	assert.InDelta(t, 70.0, result.Ratios.LTV, 1e-9)
	assert.InDelta(t, 77.7777, result.Ratios.LTC, 1e-3)
	assert.InDelta(t, 1.5, result.Ratios.DSCR, 1e-9)
	assert.InDelta(t, 17.1428, result.Ratios.DebtYield, 1e-3)
}

func TestEvaluateScenarioRatios(t *testing.T) {
	record := borrower.NewRecord(map[string]string{
		"Name":               "A",
		"CreditScore":        "550",
		"Income":             "1000",
		"LoanAmount":         "500",
		"AssetValue":         "1000",
		"TotalCost":          "1000",
		"NetOperatingIncome": "100",
		"AnnualDebtService":  "200",
	})

	result := Evaluate(record)

	assert.Equal(t, Ratios{LTV: 50, LTC: 50, DSCR: 0.5, DebtYield: 20}, result.Ratios)
	// 500 / 1000 = 0.5 exceeds the 0.4 loan-to-income threshold as well.
	assert.Equal(t, []string{ReasonPoorCredit, ReasonHighLoanToIncome, ReasonLowDSCR}, result.Reasons)
	assert.Equal(t, TierHigh, result.Risk)

	record = with(record.Values(), map[string]string{"Income": "2000"})
	result = Evaluate(record)
	assert.Equal(t, []string{ReasonPoorCredit, ReasonLowDSCR}, result.Reasons)
	assert.Equal(t, TierMedium, result.Risk)
}

func TestEvaluateChecks(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		reasons   []string
	}{
		{"Credit score just below minimum", map[string]string{"CreditScore": "599.99"}, []string{ReasonPoorCredit}},
		{"Credit score at minimum", map[string]string{"CreditScore": "600"}, nil},
		{"Loan to income above limit", map[string]string{"Income": "1700000"}, []string{ReasonHighLoanToIncome}},
		{"Loan to income exactly 0.4", map[string]string{"Income": "1750000"}, nil},
		{"LTV above 80", map[string]string{"AssetValue": "870000"}, []string{ReasonHighLTV}},
		{"LTV exactly 80", map[string]string{"AssetValue": "875000"}, nil},
		{"LTC above 85", map[string]string{"TotalCost": "820000"}, []string{ReasonHighLTC}},
		{"DSCR below 1.2", map[string]string{"AnnualDebtService": "101000"}, []string{ReasonLowDSCR}},
		{"DSCR exactly 1.2", map[string]string{"AnnualDebtService": "100000"}, nil},
		{"Debt yield below 10", map[string]string{"NetOperatingIncome": "69000", "AnnualDebtService": "50000"}, []string{ReasonLowDebtYield}},
		{"Debt yield exactly 10", map[string]string{"NetOperatingIncome": "70000", "AnnualDebtService": "50000"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(with(lowRisk(), tt.overrides))
			if tt.reasons == nil {
				assert.Empty(t, result.Reasons)
			} else {
				assert.Equal(t, tt.reasons, result.Reasons)
			}
			assert.Equal(t, Classify(len(result.Reasons)), result.Risk)
		})
	}
}

func TestEvaluateAllChecksInOrder(t *testing.T) {
	record := borrower.NewRecord(map[string]string{
		"Name":               "Worst Case",
		"LoanAmount":         "950000",
		"AssetValue":         "1000000",
		"TotalCost":          "1000000",
		"NetOperatingIncome": "50000",
		"AnnualDebtService":  "90000",
		"CreditScore":        "480",
		"Income":             "100000",
	})

	result := Evaluate(record)

	assert.Equal(t, []string{
		ReasonPoorCredit,
		ReasonHighLoanToIncome,
		ReasonHighLTV,
		ReasonHighLTC,
		ReasonLowDSCR,
		ReasonLowDebtYield,
	}, result.Reasons)
	assert.Equal(t, TierHigh, result.Risk)
	assert.Equal(t, 6, result.Triggered())
}

func TestEvaluateZeroDenominators(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		ratio  func(Ratios) float64
		reason string
	}{
		{"Asset value zero", "AssetValue", func(r Ratios) float64 { return r.LTV }, ""},
		{"Total cost zero", "TotalCost", func(r Ratios) float64 { return r.LTC }, ""},
		{"Debt service zero", "AnnualDebtService", func(r Ratios) float64 { return r.DSCR }, ReasonLowDSCR},
		{"Loan amount zero", "LoanAmount", func(r Ratios) float64 { return r.DebtYield }, ReasonLowDebtYield},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(with(lowRisk(), map[string]string{tt.field: "0"}))
			got := tt.ratio(result.Ratios)
			require.False(t, math.IsNaN(got) || math.IsInf(got, 0), "ratio must be finite, got %v", got)
			assert.Equal(t, 0.0, got)
			if tt.reason != "" {
				assert.Contains(t, result.Reasons, tt.reason)
			}
		})
	}
}

func TestEvaluateDefaults(t *testing.T) {
	t.Run("Empty record", func(t *testing.T) {
		result := Evaluate(borrower.NewRecord(nil))

		assert.Equal(t, "", result.Name, "no default name is substituted")
		assert.Equal(t, Ratios{}, result.Ratios)
		// Credit score 0, DSCR 0 and debt yield 0 trigger; loan/income is 0/1.
		assert.Equal(t, []string{ReasonPoorCredit, ReasonLowDSCR, ReasonLowDebtYield}, result.Reasons)
		assert.Equal(t, TierHigh, result.Risk)
	})

	t.Run("Income defaults to one", func(t *testing.T) {
		result := Evaluate(with(lowRisk(), map[string]string{"Income": "<absent>", "LoanAmount": "0.3"}))
		assert.NotContains(t, result.Reasons, ReasonHighLoanToIncome)

		result = Evaluate(with(lowRisk(), map[string]string{"Income": "n/a", "LoanAmount": "0.5"}))
		assert.Contains(t, result.Reasons, ReasonHighLoanToIncome)
	})

	t.Run("Non-numeric values default to zero", func(t *testing.T) {
		result := Evaluate(with(lowRisk(), map[string]string{"AssetValue": "one million"}))
		assert.Equal(t, 0.0, result.Ratios.LTV)
	})

	t.Run("Explicit zero income", func(t *testing.T) {
		result := Evaluate(with(lowRisk(), map[string]string{"Income": "0"}))
		assert.Contains(t, result.Reasons, ReasonHighLoanToIncome)
	})
}

func TestEvaluateNamePassthrough(t *testing.T) {
	result := Evaluate(with(lowRisk(), map[string]string{"Name": "  mixed Case Co.  "}))
	assert.Equal(t, "  mixed Case Co.  ", result.Name)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	record := with(lowRisk(), map[string]string{"CreditScore": "590", "AssetValue": "800000"})
	assert.Equal(t, Evaluate(record), Evaluate(record))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		triggered int
		expected  Tier
	}{
		{0, TierLow},
		{1, TierMedium},
		{2, TierMedium},
		{3, TierHigh},
		{4, TierHigh},
		{6, TierHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Classify(tt.triggered), "Classify(%d)", tt.triggered)
	}
}

func TestTierFollowsReasonCount(t *testing.T) {
	scores := []string{"500", "650"}
	assets := []string{"0", "500000", "1000000"}
	services := []string{"0", "50000", "200000"}
	incomes := []string{"", "10", "5000000"}

	for _, score := range scores {
		for _, asset := range assets {
			for _, service := range services {
				for _, income := range incomes {
					result := Evaluate(with(lowRisk(), map[string]string{
						"CreditScore":       score,
						"AssetValue":        asset,
						"AnnualDebtService": service,
						"Income":            income,
					}))
					n := len(result.Reasons)
					switch result.Risk {
					case TierHigh:
						assert.GreaterOrEqual(t, n, 3)
					case TierMedium:
						assert.True(t, n >= 1 && n <= 2, "medium with %d reasons", n)
					case TierLow:
						assert.Zero(t, n)
					default:
						t.Fatalf("unexpected tier %q", result.Risk)
					}
				}
			}
		}
	}
}

func TestEvaluateStrict(t *testing.T) {
	record := with(lowRisk(), map[string]string{
		"AssetValue":  "<absent>",
		"Income":      "lots",
		"CreditScore": "  ",
	})

	result, issues := EvaluateStrict(record)

	assert.Equal(t, Evaluate(record), result, "strict mode does not change the result")
	require.Len(t, issues, 3)
	assert.Equal(t, FieldIssue{Field: "AssetValue", Defaulted: 0, Reason: "missing"}, issues[0])
	assert.Equal(t, FieldIssue{Field: "CreditScore", Value: "  ", Defaulted: 0, Reason: "missing"}, issues[1])
	assert.Equal(t, FieldIssue{Field: "Income", Value: "lots", Defaulted: 1, Reason: "not a number"}, issues[2])
	assert.Equal(t, "Income: not a number, defaulted to 1", issues[2].String())

	_, issues = EvaluateStrict(with(lowRisk(), nil))
	assert.Empty(t, issues)
}

func TestCalculateRatios(t *testing.T) {
	ratios := CalculateRatios(750000, 1000000, 1250000, 90000, 60000)
	assert.InDelta(t, 75.0, ratios.LTV, 1e-9)
	assert.InDelta(t, 60.0, ratios.LTC, 1e-9)
	assert.InDelta(t, 1.5, ratios.DSCR, 1e-9)
	assert.InDelta(t, 12.0, ratios.DebtYield, 1e-9)
}

func TestRatiosMarshalJSON(t *testing.T) {
	data, err := json.Marshal(Ratios{LTV: 75, LTC: math.Inf(1), DSCR: math.NaN(), DebtYield: 12.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ltv":75,"ltc":null,"dscr":null,"debtYield":12.5}`, string(data))
}

func TestEvaluateOverflowEncodes(t *testing.T) {
	result := Evaluate(with(lowRisk(), map[string]string{"LoanAmount": "1e308", "AssetValue": "0.001"}))
	require.True(t, math.IsInf(result.Ratios.LTV, 1))
	assert.Contains(t, result.Reasons, ReasonHighLTV)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ltv":null`)
}
