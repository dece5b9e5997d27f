package fileutil

import (
	"fmt"

	"github.com/rohmanhakim/test-redirection/pkg/failure"
)

type FileErrorCause string

const (
	ErrCausePathError  FileErrorCause = "path error"
	ErrCausePermission FileErrorCause = "permission denied"
)

// FileError reports a filesystem operation that failed on Path.
type FileError struct {
	Message   string
	Retryable bool
	Cause     FileErrorCause
	Path      string
}

func (e *FileError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("file error: %s: %s", e.Cause, e.Message)
	}
	return fmt.Sprintf("file error: %s at %s: %s", e.Cause, e.Path, e.Message)
}

func (e *FileError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *FileError) IsRetryable() bool {
	return e.Retryable
}
