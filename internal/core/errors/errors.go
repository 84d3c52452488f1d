package errors

const (
	HttpInternalError          = "internal_error"
	HttpInvalidJsonError       = "invalid_json"
	HttpInvalidRequestError    = "invalid_request"
	HttpSchemaValidationError  = "schema_validation_failed"
	HttpDuplicateFileError     = "duplicate_file"
	HttpTooManyRecordsError    = "too_many_records"
	HttpStorageUnavailable     = "storage_unavailable"
	HttpNoFilesError           = "no_files"
	HttpSummaryNotFoundError   = "summary_not_found"
	HttpInvalidPeriodError     = "invalid_period"
	HttpAggregationFailedError = "aggregation_failed"
)

// ErrorResponse is the error response body for all v1 endpoints.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
