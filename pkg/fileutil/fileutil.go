package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rohmanhakim/test-redirection/pkg/failure"
)

// GetFileExtension extracts the lowercased file extension from a path, or empty string if none
func GetFileExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// EnsureParentDir creates the directory that will hold the file at path.
func EnsureParentDir(path string) failure.ClassifiedError {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return EnsureDir(dir)
}

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	fullPath := filepath.Join(targetPath...)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		cause := ErrCausePathError
		if errors.Is(err, fs.ErrPermission) {
			cause = ErrCausePermission
		}
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     cause,
			Path:      fullPath,
		}
	}
	return nil
}
