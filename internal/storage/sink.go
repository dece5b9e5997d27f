package storage

import (
	"encoding/json"
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/pkg/failure"
	"github.com/rohmanhakim/test-redirection/pkg/fileutil"
	"github.com/rohmanhakim/test-redirection/pkg/hashutil"
	"gopkg.in/yaml.v3"
)

/*
Responsibilities
- Persist the run report

Output Characteristics
- YAML for .yaml/.yml paths, indented JSON otherwise
- Parent directories are created
- Reruns overwrite the previous report
*/

type Sink interface {
	Write(path string, report Report) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
) *LocalSink {
	return &LocalSink{
		metadataSink: metadataSink,
	}
}

func (s *LocalSink) Write(path string, report Report) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(path, report)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrWritePath, err.Path),
			},
		)
		return WriteResult{}, err
	}
	return writeResult, nil
}

func encode(path string, report Report) ([]byte, error) {
	switch fileutil.GetFileExtension(path) {
	case "yaml", "yml":
		return yaml.Marshal(report)
	default:
		content, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(content, '\n'), nil
	}
}

func write(path string, report Report) (WriteResult, *StorageError) {
	content, err := encode(path, report)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodingFailure,
			Path:      path,
		}
	}

	contentHash, err := hashutil.HashBytes(content, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputeFailed,
			Path:      path,
		}
	}

	if err := fileutil.EnsureParentDir(path); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      path,
		}
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      path,
		}
	}

	return NewWriteResult(path, contentHash), nil
}
