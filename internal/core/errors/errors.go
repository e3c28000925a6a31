package errors

const (
	HttpInternalError     = "internal_error"
	HttpInvalidQueryError = "invalid_query"
	HttpInvalidDateError  = "invalid_date_format"
	HttpUnauthorizedError = "unauthorized"
)

// ErrorResponse is the error response body for query API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
