package fetcher

import (
	"fmt"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout    FetchErrorCause = "timeout"
	ErrCauseHTTPStatus FetchErrorCause = "http status"
	ErrCauseTransport  FetchErrorCause = "transport failure"
)

type FetchError struct {
	Message    string
	Retryable  bool
	Cause      FetchErrorCause
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.Cause == ErrCauseHTTPStatus {
		return fmt.Sprintf("fetcher error: %s %d", e.Cause, e.StatusCode)
	}
	return fmt.Sprintf("fetcher error: %s", e.Cause)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// isStatusRetryable classifies HTTP status codes: server-side errors and
// throttling are worth another attempt, other client errors are not.
func isStatusRetryable(statusCode int) bool {
	if statusCode >= 500 {
		return true
	}
	return statusCode == 429
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout:
		return metadata.CauseNetworkFailure
	case ErrCauseTransport:
		return metadata.CauseNetworkFailure
	case ErrCauseHTTPStatus:
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseUnknown
	}
}
