package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidType          ErrorCode = 103
	ErrCodeInvalidInterval      ErrorCode = 104
	ErrCodeInvalidThreshold     ErrorCode = 105
	ErrCodeMalformedSeries      ErrorCode = 106
	ErrCodeMissingParameter     ErrorCode = 107

	// Data quality errors (200-299)
	ErrCodeNonMonotonicTimestamps ErrorCode = 200
	ErrCodeMissingOHLCVField      ErrorCode = 201

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 300

	// Setup errors (400-499)
	ErrCodeSetupEvaluation ErrorCode = 400

	// Outcome errors (500-599)
	ErrCodeOutcomeEvaluation ErrorCode = 500
	ErrCodeInvalidAlert      ErrorCode = 501

	// Store errors (600-699)
	ErrCodeStoreOpenFailed ErrorCode = 600
	ErrCodeQueryFailed     ErrorCode = 601
	ErrCodeUpsertFailed    ErrorCode = 602
	ErrCodeScanFailed      ErrorCode = 603

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataParseFailed ErrorCode = 701
	ErrCodeInvalidProvider       ErrorCode = 702
)
