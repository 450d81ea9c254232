package storage

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/pkg/failure"
	"github.com/novelpack/novelpack/pkg/fileutil"
	"github.com/novelpack/novelpack/pkg/hashutil"
)

/*
Responsibilities
- Serialize the assembled book into the chosen output format
- Persist exactly one artifact file per run

Output Characteristics
- Stable filename derived from the novel title
- One single write per run; no partial output files
- Overwrite-safe reruns
*/

type Sink interface {
	Write(
		outputDir string,
		book novel.Book,
	) (WriteResult, failure.ClassifiedError)
}

// NewSink selects the serializer for the requested format.
func NewSink(format Format, metadataSink metadata.MetadataSink) (Sink, failure.ClassifiedError) {
	switch format {
	case FormatEPUB:
		sink := NewEpubSink(metadataSink)
		return &sink, nil
	case FormatJSON:
		sink := NewJSONSink(metadataSink)
		return &sink, nil
	case FormatMarkdown:
		sink := NewMarkdownSink(metadataSink)
		return &sink, nil
	default:
		return nil, &StorageError{
			Message:   "unknown output format: " + string(format),
			Retryable: false,
			Cause:     ErrCauseUnsupportedFormat,
		}
	}
}

// artifactPath builds outputDir/<safe-title>.<ext>.
func artifactPath(outputDir, title string, format Format) string {
	return filepath.Join(outputDir, SafeTitle(title)+"."+format.Extension())
}

// persistArtifact writes the serialized book in a single atomic step
// and returns the path plus content hash.
func persistArtifact(outputDir, title string, format Format, data []byte) (WriteResult, *StorageError) {
	if err := fileutil.EnsureDir(outputDir); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      outputDir,
		}
	}

	fullPath := artifactPath(outputDir, title, format)
	if err := fileutil.WriteFile(fullPath, data); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      fullPath,
		}
	}

	contentHash, err := hashutil.HashBytes(data, hashutil.HashAlgoBLAKE3)
	if err != nil {
		// The artifact is already on disk; a hashing failure only
		// degrades the recorded metadata.
		contentHash = ""
	}

	return NewWriteResult(fullPath, contentHash), nil
}

func recordStorageError(
	metadataSink metadata.MetadataSink,
	callerMethod string,
	err failure.ClassifiedError,
) {
	var storageError *StorageError
	if !errors.As(err, &storageError) {
		return
	}
	metadataSink.RecordError(
		time.Now(),
		"storage",
		callerMethod,
		mapStorageErrorToMetadataCause(storageError),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
		},
	)
}

func recordArtifact(
	metadataSink metadata.MetadataSink,
	kind metadata.ArtifactKind,
	writeResult WriteResult,
) {
	metadataSink.RecordArtifact(
		kind,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrMessage, writeResult.ContentHash()),
		},
	)
}
