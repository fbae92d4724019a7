package model

// Warning codes for non-fatal conditions reported alongside a result.
const (
	WarnIndexWriteFailed = "INDEX_WRITE_FAILED"
	WarnIndexCreated     = "INDEX_CREATED"
	WarnHistoryFailed    = "HISTORY_WRITE_FAILED"
)

// Warning is a non-fatal condition attached to an otherwise successful result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
