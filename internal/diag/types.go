package diag

// Severity indicates the importance level of a diagnostic.
type Severity int

const (
	// SeverityInfo indicates informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning indicates issues that do not abort a compile.
	SeverityWarning
	// SeverityError indicates issues that abort the compile.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue represents a single problem found in a source file.
type Issue struct {
	File     string   // Path to the source file ("" for stdin)
	Line     int      // Line number (0 if file-level issue)
	Severity Severity // Issue severity level
	Rule     string   // Rule identifier (e.g., "unknown-tag")
	Message  string   // Description of the issue
}

// Result contains all issues found while checking one or more sources.
type Result struct {
	Issues     []Issue
	FilesTotal int // Total files checked
}

// Add appends an issue to the result.
func (r *Result) Add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// Merge appends all issues from other into r.
func (r *Result) Merge(other *Result) {
	r.Issues = append(r.Issues, other.Issues...)
	r.FilesTotal += other.FilesTotal
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			count++
		}
	}
	return count
}
