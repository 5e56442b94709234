// Package output provides utilities for formatting and displaying borrower
// evaluation results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iwvelando/loan-risk/internal/borrower"
	"github.com/iwvelando/loan-risk/internal/risk"
	"github.com/iwvelando/loan-risk/pkg/constants"
	"github.com/iwvelando/loan-risk/pkg/mathutil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// unknownName is displayed for borrowers without a name.
const unknownName = "Unknown"

// ExportHeader is the fixed column order of the CSV export.
var ExportHeader = append(borrower.RequiredColumns(),
	"Risk", "LTV", "LTC", "DSCR", "DebtYield", "Reasons")

// Report is the JSON rendering of an evaluated batch.
type Report struct {
	BatchID string                    `json:"batchId"`
	Results []risk.Result             `json:"results"`
	Issues  map[int][]risk.FieldIssue `json:"issues,omitempty"`
}

// WritePretty writes the human-readable table to w.
func WritePretty(w io.Writer, batch risk.Batch) {
	p := message.NewPrinter(language.English)
	counts := batch.Counts()
	_, _ = p.Fprintf(w, "--- Results for batch %s ---\n", batch.ID)
	_, _ = p.Fprintf(w, "Borrowers: %d (Low %d, Medium %d, High %d)\n",
		len(batch.Results), counts[risk.TierLow], counts[risk.TierMedium], counts[risk.TierHigh])
	fmt.Fprintf(w, "Name | Risk | LTV | LTC | DSCR | Debt Yield | Reasons\n")
	fmt.Fprintf(w, "____ | ____ | ___ | ___ | ____ | __________ | _______\n")
	for _, result := range batch.Results {
		name := result.Name
		if name == "" {
			name = unknownName
		}
		_, _ = p.Fprintf(w, "%s | %s | %s | %s | %s | %s | %s\n",
			name,
			result.Risk,
			formatPercent(result.Ratios.LTV),
			formatPercent(result.Ratios.LTC),
			formatRatio(result.Ratios.DSCR),
			formatPercent(result.Ratios.DebtYield),
			strings.Join(result.Reasons, ", "),
		)
	}

	if len(batch.Issues) == 0 {
		return
	}
	rows := make([]int, 0, len(batch.Issues))
	for row := range batch.Issues {
		rows = append(rows, row)
	}
	sort.Ints(rows)
	fmt.Fprintf(w, "\nDefaulted fields:\n")
	for _, row := range rows {
		for _, issue := range batch.Issues[row] {
			fmt.Fprintf(w, "  row %d: %s\n", row+1, issue)
		}
	}
}

// CsvString returns the export table as a string.
func CsvString(records []borrower.Record, results []risk.Result) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records, results); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteCSV writes the export table: the raw borrower columns followed by the
// risk tier, the ratios and the joined reasons. records and results must be
// parallel slices.
func WriteCSV(w io.Writer, records []borrower.Record, results []risk.Result) error {
	if len(records) != len(results) {
		return fmt.Errorf("export needs one result per record, got %d records and %d results",
			len(records), len(results))
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, result := range results {
		if err := writer.Write(ExportRow(records[i], result)); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportRow renders one borrower in ExportHeader order.
func ExportRow(record borrower.Record, result risk.Result) []string {
	row := make([]string, 0, len(ExportHeader))
	for _, column := range borrower.RequiredColumns() {
		value, _ := record.Get(column)
		row = append(row, value)
	}
	return append(row,
		string(result.Risk),
		formatPercent(result.Ratios.LTV),
		formatPercent(result.Ratios.LTC),
		formatRatio(result.Ratios.DSCR),
		formatPercent(result.Ratios.DebtYield),
		strings.Join(result.Reasons, constants.ReasonSeparator),
	)
}

// WriteJSON writes the batch as indented JSON. Non-finite ratios encode as
// null.
func WriteJSON(w io.Writer, batch risk.Batch) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Report{
		BatchID: batch.ID,
		Results: batch.Results,
		Issues:  batch.Issues,
	})
}

func formatPercent(v float64) string {
	if !mathutil.IsFinite(v) {
		return constants.NotAvailable
	}
	return formatRatio(v) + "%"
}

func formatRatio(v float64) string {
	if !mathutil.IsFinite(v) {
		return constants.NotAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(constants.DisplayDecimals)
}
