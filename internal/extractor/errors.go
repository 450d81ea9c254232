package extractor

import (
	"fmt"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCauseNotHTML      ExtractionErrorCause = "not HTML"
	ErrCauseMissingField ExtractionErrorCause = "missing field"
	ErrCauseNoContent    ExtractionErrorCause = "no content"
	ErrCauseBadLink      ExtractionErrorCause = "bad link"
)

type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
	Field     string
}

func (e *ExtractionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("extraction error: %s %q", e.Cause, e.Field)
	}
	return fmt.Sprintf("extraction error: %s", e.Cause)
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *ExtractionError) IsRetryable() bool {
	return e.Retryable
}

// mapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNotHTML:
		return metadata.CauseContentInvalid
	case ErrCauseMissingField:
		return metadata.CauseContentInvalid
	case ErrCauseNoContent:
		return metadata.CauseContentInvalid
	case ErrCauseBadLink:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
