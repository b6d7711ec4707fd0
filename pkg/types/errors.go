package types

import "fmt"

// Error code constants for agent-facing errors.
const (
	ErrCodeMissingCredential = "MISSING_CREDENTIAL"
	ErrCodeInvalidURL        = "INVALID_URL"
	ErrCodeProcessNotFound   = "PROCESS_NOT_FOUND"
	ErrCodeProcessTimeout    = "PROCESS_TIMEOUT"
	ErrCodeProcessFailed     = "PROCESS_FAILED"
	ErrCodeHTTPError         = "HTTP_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeFSPermission      = "FS_PERMISSION"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// MCPError represents a structured error returned to AI agents.
type MCPError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Tool       string `json:"tool"`
	Detail     string `json:"detail,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (e *MCPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s (%s)", e.Code, e.Tool, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Tool, e.Message)
}
