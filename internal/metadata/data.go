package metadata

import (
	"time"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - The failure does not map cleanly to any known category.
  - Used as a safe fallback.

# CauseNetworkFailure

  - Failure caused by network transport or remote availability:
    TCP timeouts, DNS resolution failures, connection resets.

# CauseRetryFailure

  - A retry budget was exhausted without a successful attempt.

# CauseContentInvalid

  - Content was fetched but could not be processed meaningfully:
    non-HTML responses, missing selector matches, broken DOM.

# CauseStorageFailure

  - Failure while persisting run artifacts: disk full, permissions,
    filesystem I/O.

# CauseInvariantViolation

  - A system-level invariant was violated, e.g. an illegal run-state
    transition or a chapter count mismatch.
*/
const (
	CauseUnknown = iota
	CauseNetworkFailure
	CauseRetryFailure
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
)

type ArtifactKind string

const (
	ArtifactEPUB     ArtifactKind = "epub"
	ArtifactJSON     ArtifactKind = "json"
	ArtifactMarkdown ArtifactKind = "markdown"
	ArtifactCover    ArtifactKind = "cover"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL          AttributeKey = "url"
	AttrField        AttributeKey = "field"
	AttrHTTPStatus   AttributeKey = "http_status"
	AttrChapterIndex AttributeKey = "chapter_index"
	AttrWritePath    AttributeKey = "write_path"
	AttrMessage      AttributeKey = "message"
	AttrState        AttributeKey = "state"
)

/*
runStats
  - Represents a terminal, derived summary of a completed run
  - Contains only aggregate counts and durations
  - Is computed by the scheduler after run termination
  - Is recorded exactly once
  - Must not influence scheduling, retries, or run termination
*/
type runStats struct {
	totalChapters  int
	failedChapters int
	durationMs     int64
}

func newRunStats(totalChapters, failedChapters int, duration time.Duration) runStats {
	return runStats{
		totalChapters:  totalChapters,
		failedChapters: failedChapters,
		durationMs:     duration.Milliseconds(),
	}
}
