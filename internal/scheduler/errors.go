package scheduler

import (
	"fmt"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/pkg/failure"
)

type SchedulerErrorCause string

const (
	ErrCauseInvalidNovelURL      SchedulerErrorCause = "invalid novel url"
	ErrCauseMetadataFetchFailed  SchedulerErrorCause = "metadata fetch failed"
	ErrCauseDiscoveryFailed      SchedulerErrorCause = "chapter discovery failed"
	ErrCauseWriteFailed          SchedulerErrorCause = "artifact write failed"
	ErrCauseIllegalTransition    SchedulerErrorCause = "illegal state transition"
	ErrCauseUnsupportedArtifacts SchedulerErrorCause = "unsupported artifact format"
)

type SchedulerError struct {
	Message   string
	Retryable bool
	Cause     SchedulerErrorCause
	StageErr  error
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("scheduler error: %s", e.Cause)
}

func (e *SchedulerError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *SchedulerError) IsRetryable() bool {
	return e.Retryable
}

func (e *SchedulerError) Unwrap() error {
	return e.StageErr
}

// mapSchedulerErrorToMetadataCause maps scheduler-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapSchedulerErrorToMetadataCause(err *SchedulerError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseMetadataFetchFailed:
		return metadata.CauseNetworkFailure
	case ErrCauseDiscoveryFailed:
		return metadata.CauseNetworkFailure
	case ErrCauseWriteFailed:
		return metadata.CauseStorageFailure
	case ErrCauseIllegalTransition:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
