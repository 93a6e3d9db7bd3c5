package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateWorkflowID validates a workflow identifier before it is used in
// cache keys, file names or SQL parameters.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - Maximum length of 128 characters
//   - Only letters, digits and the characters - _ . :
//   - No path traversal sequences (..)
func ValidateWorkflowID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "workflow ID cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "workflow ID too long (max 128 characters)")
	}
	if !workflowIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "workflow ID contains invalid characters: %q", id)
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "workflow ID cannot contain path traversal sequences (..)")
	}
	return nil
}

var workflowIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateTaskName validates a task name within a workflow. Task names become
// node and edge IDs, so the arrow used in edge IDs is rejected.
func ValidateTaskName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidWorkflow, "task name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidWorkflow, "task name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidWorkflow, "task name contains invalid control characters")
		}
	}
	if strings.Contains(name, "->") {
		return New(ErrCodeInvalidWorkflow, "task name cannot contain %q", "->")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateDatabaseURL checks that a connection string uses a postgres scheme.
func ValidateDatabaseURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "database URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "postgres://") && !strings.HasPrefix(rawURL, "postgresql://") {
		return New(ErrCodeInvalidInput, "database URL must use postgres:// or postgresql:// scheme")
	}
	return nil
}

// sqlIdentRegex matches unquoted SQL identifiers.
var sqlIdentRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateSQLIdentifier validates a schema or table name that is interpolated
// into query text.
func ValidateSQLIdentifier(name string) error {
	if len(name) > 63 || !sqlIdentRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid SQL identifier: %q", name)
	}
	return nil
}
