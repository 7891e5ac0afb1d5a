package models

// Error codes surfaced to API callers
const (
	ErrCodeDBConnectionFailed    = "DB_CONNECTION_FAILED"
	ErrCodeNoData                = "NO_DATA"
	ErrCodeInvalidSession        = "INVALID_SESSION"
	ErrCodeSessionNotFound       = "SESSION_NOT_FOUND"
	ErrCodeEmptyQuery            = "EMPTY_QUERY"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeSessionCreationFailed = "SESSION_CREATION_FAILED"
	ErrCodeSessionClearFailed    = "SESSION_CLEAR_FAILED"
	ErrCodeHistoryFailed         = "HISTORY_RETRIEVAL_FAILED"
	ErrCodeProcessingFailed      = "PROCESSING_FAILED"
	ErrCodeInvalidFile           = "INVALID_FILE"
	ErrCodeNoFile                = "NO_FILE"
	ErrCodeUnexpected            = "UNEXPECTED_ERROR"
)

// QueryResult is what an operation handler returns for one turn
type QueryResult struct {
	Response    string `json:"response,omitempty"`
	SQLQuery    string `json:"sql_query,omitempty"`
	SQLResponse string `json:"sql_response,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
}

// IsError reports whether the result carries an error instead of a response
func (r QueryResult) IsError() bool {
	return r.ErrorCode != ""
}

// Reply builds a plain response result
func Reply(text string) QueryResult {
	return QueryResult{Response: text}
}

// Failure builds an error result
func Failure(message, code string) QueryResult {
	return QueryResult{Error: message, ErrorCode: code}
}
