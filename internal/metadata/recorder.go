package metadata

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

/*
Metadata Collected
- Fetch timestamps, HTTP status codes, durations, retry counts
- Per-chapter completion progress
- Artifact paths and content hashes

Logging Goals
- Debuggable crawl behavior
- Post-run auditability
- Failure diagnostics

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder chapter output
 - Output is stable given identical inputs

Metadata is write-only.
No component may read metadata to influence run decisions.
*/

/*
Recorder captures structured run events and emits them through zap.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events are recorded in the order they are received per goroutine.
- No global ordering across concurrent download tasks is guaranteed.
- Ordering is provided for debuggability, not causality.
*/
type Recorder struct {
	logger *zap.Logger
}

func NewRecorder(logger *zap.Logger) Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Recorder{
		logger: logger,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	fields := []zap.Field{
		zap.Time("observed_at", observedAt),
		zap.String("package", packageName),
		zap.String("action", action),
		zap.Int("cause", int(cause)),
		zap.String("error", errorString),
	}
	fields = append(fields, attrFields(attrs)...)
	r.logger.Warn("pipeline error", fields...)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	retryCount int,
) {
	r.logger.Debug("fetch",
		zap.String("url", fetchUrl),
		zap.Int("status", httpStatus),
		zap.Duration("duration", duration),
		zap.Int("retries", retryCount),
	)
}

// RecordChapterProgress reports a completed download task: index is the
// 1-based position, total the chapter count of the run. Observability
// only; not part of the downloader's correctness contract.
func (r *Recorder) RecordChapterProgress(index, total int, title string, ok bool) {
	r.logger.Info("chapter",
		zap.String("progress", progressLabel(index, total)),
		zap.String("title", title),
		zap.Bool("ok", ok),
	)
}

func (r *Recorder) RecordStateChange(from, to string) {
	r.logger.Debug("state change",
		zap.String("from", from),
		zap.String("to", to),
	)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("path", path),
	}
	fields = append(fields, attrFields(attrs)...)
	r.logger.Info("artifact written", fields...)
}

/*
RecordFinalRunStats records a terminal, derived summary of a completed run.

Contract:
  - MUST be called exactly once per run execution.
  - MUST be called only after run termination.
  - The provided stats MUST be derived from scheduler state,
    not accumulated incrementally via the recorder.
  - Recorded stats MUST NOT influence control flow or scheduling.
*/
func (r *Recorder) RecordFinalRunStats(
	totalChapters int,
	failedChapters int,
	duration time.Duration,
) {
	stats := newRunStats(totalChapters, failedChapters, duration)
	r.logger.Info("run finished",
		zap.Int("chapters", stats.totalChapters),
		zap.Int("failed", stats.failedChapters),
		zap.Int64("duration_ms", stats.durationMs),
	)
}

func attrFields(attrs []Attribute) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for _, attr := range attrs {
		fields = append(fields, zap.String(string(attr.Key), attr.Value))
	}
	return fields
}

func progressLabel(index, total int) string {
	return fmt.Sprintf("[%d/%d]", index, total)
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		retryCount int,
	)

	RecordChapterProgress(index, total int, title string, ok bool)

	RecordStateChange(from, to string)

	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type RunFinalizer interface {
	RecordFinalRunStats(
		totalChapters int,
		failedChapters int,
		duration time.Duration,
	)
}

// NoopSink implements MetadataSink but does nothing.
// The scheduler (or a test) decides whether to inject Recorder or NoopSink;
// the purpose is to keep metadata orthogonal.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	retryCount int,
) {
}

func (n *NoopSink) RecordChapterProgress(index, total int, title string, ok bool) {}

func (n *NoopSink) RecordStateChange(from, to string) {}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordFinalRunStats(
	totalChapters int,
	failedChapters int,
	duration time.Duration,
) {
}
