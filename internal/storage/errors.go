package storage

import (
	"fmt"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/pkg/failure"
)

type StorageErrorCause string

const (
	ErrCauseUnsupportedFormat    StorageErrorCause = "unsupported format"
	ErrCauseSerializationFailure StorageErrorCause = "serialization failed"
	ErrCauseWriteFailure         StorageErrorCause = "write failed"
)

type StorageError struct {
	Message   string
	Retryable bool
	Cause     StorageErrorCause
	Path      string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s", e.Cause)
}

func (e *StorageError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *StorageError) IsRetryable() bool {
	return e.Retryable
}

// mapStorageErrorToMetadataCause maps storage-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapStorageErrorToMetadataCause(err *StorageError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseWriteFailure:
		return metadata.CauseStorageFailure
	case ErrCauseSerializationFailure:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
