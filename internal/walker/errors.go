package walker

import (
	"fmt"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/pkg/failure"
)

type WalkErrorCause string

const (
	ErrCausePageFetchFailed   WalkErrorCause = "list page fetch failed"
	ErrCausePageExtractFailed WalkErrorCause = "list page extraction failed"
	ErrCausePaginationLoop    WalkErrorCause = "pagination loop"
)

type WalkError struct {
	Message   string
	Retryable bool
	Cause     WalkErrorCause
	PageErr   error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("walk error: %s", e.Cause)
}

func (e *WalkError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *WalkError) IsRetryable() bool {
	return e.Retryable
}

func (e *WalkError) Unwrap() error {
	return e.PageErr
}

// mapWalkErrorToMetadataCause maps walker-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapWalkErrorToMetadataCause(err *WalkError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCausePageFetchFailed:
		return metadata.CauseNetworkFailure
	case ErrCausePageExtractFailed:
		return metadata.CauseContentInvalid
	case ErrCausePaginationLoop:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
