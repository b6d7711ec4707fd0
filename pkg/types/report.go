package types

// Operation status values carried in every result record.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
	StatusWarning = "warning"
	StatusTesting = "testing"
)

// Check line markers. The ordered checks list uses these prefixes so an
// agent can tell pass/warn/fail apart without extra structure.
const (
	MarkerOK   = "✅"
	MarkerWarn = "⚠️"
	MarkerFail = "❌"
)

// DiagnosticReport is the result of a full environment diagnostic run.
// Status reflects that the diagnostic itself completed, not that every
// check passed; callers inspect the per-line markers.
type DiagnosticReport struct {
	Status          string   `json:"status"`
	Checks          []string `json:"checks"`
	Recommendations []string `json:"recommendations"`
}

// CloneCheck describes one sub-test of a clone attempt.
type CloneCheck struct {
	Method  string `json:"method"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Stdout  string `json:"stdout,omitempty"`
}

// CloneTestReport aggregates the sub-tests of a clone probe.
type CloneTestReport struct {
	Status     string       `json:"status"`
	Repository string       `json:"repository"`
	Tests      []CloneCheck `json:"tests"`
}

// FileContent is the result of reading a file through the hosted API.
type FileContent struct {
	Status     string `json:"status"`
	Repository string `json:"repository"`
	FilePath   string `json:"file_path"`
	Branch     string `json:"branch"`
	Size       int    `json:"size"`
	Content    string `json:"content"`
	SHA        string `json:"sha"`
	Message    string `json:"message"`
}

// FileWriteResult is the result of creating or updating a file through
// the hosted API.
type FileWriteResult struct {
	Status     string `json:"status"`
	Repository string `json:"repository"`
	FilePath   string `json:"file_path"`
	CommitSHA  string `json:"commit_sha"`
	Updated    bool   `json:"updated"`
	Message    string `json:"message"`
}

// FixReport lists the outcome of each setup fix step.
type FixReport struct {
	Status       string   `json:"status"`
	FixesApplied []string `json:"fixes_applied"`
	Message      string   `json:"message"`
}

// FilterCloneChecks returns a copy of checks with raw subprocess output
// stripped when detail is false. Error summaries are always kept.
func FilterCloneChecks(checks []CloneCheck, detail bool) []CloneCheck {
	if detail {
		return checks
	}
	filtered := make([]CloneCheck, len(checks))
	for i, c := range checks {
		filtered[i] = CloneCheck{
			Method:  c.Method,
			Status:  c.Status,
			Message: c.Message,
			Error:   c.Error,
		}
	}
	return filtered
}
