package storage

import (
	"fmt"
	"strings"

	"github.com/novelpack/novelpack/internal/mdconvert"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/internal/sanitizer"
	"github.com/novelpack/novelpack/pkg/failure"
)

// MarkdownSink serializes the book as one Markdown document: a metadata
// header followed by each chapter converted from its sanitized markup.
type MarkdownSink struct {
	metadataSink metadata.MetadataSink
	convertRule  mdconvert.ConvertRule
}

func NewMarkdownSink(metadataSink metadata.MetadataSink) MarkdownSink {
	return MarkdownSink{
		metadataSink: metadataSink,
		convertRule:  mdconvert.NewRule(metadataSink),
	}
}

func (s *MarkdownSink) Write(
	outputDir string,
	book novel.Book,
) (WriteResult, failure.ClassifiedError) {
	data, err := s.serializeMarkdown(book)
	if err != nil {
		recordStorageError(s.metadataSink, "MarkdownSink.Write", err)
		return WriteResult{}, err
	}

	writeResult, writeErr := persistArtifact(outputDir, book.Metadata.Title, FormatMarkdown, data)
	if writeErr != nil {
		recordStorageError(s.metadataSink, "MarkdownSink.Write", writeErr)
		return WriteResult{}, writeErr
	}

	recordArtifact(s.metadataSink, metadata.ArtifactMarkdown, writeResult)
	return writeResult, nil
}

func (s *MarkdownSink) serializeMarkdown(book novel.Book) ([]byte, failure.ClassifiedError) {
	var out strings.Builder

	out.WriteString("# " + book.Metadata.Title + "\n\n")
	if book.Metadata.Author != "" {
		out.WriteString(fmt.Sprintf("**Author:** %s\n\n", book.Metadata.Author))
	}
	if len(book.Metadata.Genres) > 0 {
		out.WriteString(fmt.Sprintf("**Genres:** %s\n\n", strings.Join(book.Metadata.Genres, ", ")))
	}
	if book.Metadata.Status != "" {
		out.WriteString(fmt.Sprintf("**Status:** %s\n\n", book.Metadata.Status))
	}
	if book.Metadata.Source != "" {
		out.WriteString(fmt.Sprintf("**Source:** %s\n\n", book.Metadata.Source))
	}
	if book.Metadata.Description != "" {
		out.WriteString(book.Metadata.Description + "\n\n")
	}

	for _, chapter := range book.Chapters {
		out.WriteString("## " + chapter.Title + "\n\n")

		// Placeholder records carry plain text, not markup; they pass
		// through verbatim.
		if chapter.Failed {
			out.WriteString(chapter.Content + "\n\n")
			continue
		}

		result, err := s.convertRule.Convert(sanitizer.NewSanitizedChapter(chapter.Content))
		if err != nil {
			return nil, err
		}
		out.WriteString(strings.TrimSpace(string(result.GetMarkdownContent())) + "\n\n")
	}

	return []byte(out.String()), nil
}
