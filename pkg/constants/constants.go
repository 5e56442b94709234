// Package constants provides shared constants for the loan-risk application.
package constants

// Risk thresholds applied by the evaluator.
const (
	// MinimumCreditScore is the lowest credit score that does not trigger a risk check
	MinimumCreditScore = 600.0

	// MaxLoanToIncome is the loan-to-income ratio above which a borrower is flagged
	MaxLoanToIncome = 0.4

	// MaxLTV is the loan-to-value percentage above which a borrower is flagged
	MaxLTV = 80.0

	// MaxLTC is the loan-to-cost percentage above which a borrower is flagged
	MaxLTC = 85.0

	// MinDSCR is the debt-service coverage ratio below which a borrower is flagged
	MinDSCR = 1.2

	// MinDebtYield is the debt yield percentage below which a borrower is flagged
	MinDebtYield = 10.0

	// HighRiskTriggerCount is the number of triggered checks that makes a borrower high risk
	HighRiskTriggerCount = 3

	// DefaultWorkers is the default size of the batch evaluation worker pool
	DefaultWorkers = 4
)

// Financial constants
const (
	// DisplayDecimals is the number of decimals used when rendering ratios
	DisplayDecimals = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV export format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Logging constants
const (
	// DefaultLogFormat is the log encoding used when none is configured
	DefaultLogFormat = "json"
)

// Export rendering constants
const (
	// NotAvailable is rendered in place of ratios that are not numeric
	NotAvailable = "N/A"

	// ReasonSeparator joins risk reasons in exported rows
	ReasonSeparator = "; "
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of configuration keys
	EnvPrefix = "LOANRISK"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for borrower files (10 MB)
	DefaultMaxUploadSizeBytes int64 = 10 * 1024 * 1024
)

// Extraction backend defaults
const (
	// ExtractionPath is the PDF analysis endpoint exposed by the extraction backend
	ExtractionPath = "/analyze/pdf"

	// DefaultExtractionTimeoutSeconds bounds a single extraction request
	DefaultExtractionTimeoutSeconds = 30
)
