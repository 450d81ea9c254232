package storage

import (
	"encoding/json"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/pkg/failure"
)

// bookDTO is the stable JSON shape of a packaged novel. The internal
// model stays decoupled from the serialized form.
type bookDTO struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Author      string       `json:"author,omitempty"`
	Status      string       `json:"status,omitempty"`
	Source      string       `json:"source"`
	Genres      []string     `json:"genres,omitempty"`
	CoverURL    string       `json:"cover_url,omitempty"`
	Chapters    []chapterDTO `json:"chapters"`
}

type chapterDTO struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Failed  bool   `json:"failed,omitempty"`
}

type JSONSink struct {
	metadataSink metadata.MetadataSink
}

func NewJSONSink(metadataSink metadata.MetadataSink) JSONSink {
	return JSONSink{
		metadataSink: metadataSink,
	}
}

func (s *JSONSink) Write(
	outputDir string,
	book novel.Book,
) (WriteResult, failure.ClassifiedError) {
	data, err := serializeJSON(book)
	if err != nil {
		recordStorageError(s.metadataSink, "JSONSink.Write", err)
		return WriteResult{}, err
	}

	writeResult, writeErr := persistArtifact(outputDir, book.Metadata.Title, FormatJSON, data)
	if writeErr != nil {
		recordStorageError(s.metadataSink, "JSONSink.Write", writeErr)
		return WriteResult{}, writeErr
	}

	recordArtifact(s.metadataSink, metadata.ArtifactJSON, writeResult)
	return writeResult, nil
}

func serializeJSON(book novel.Book) ([]byte, *StorageError) {
	chapters := make([]chapterDTO, len(book.Chapters))
	for i, chapter := range book.Chapters {
		chapters[i] = chapterDTO{
			Title:   chapter.Title,
			Content: chapter.Content,
			Failed:  chapter.Failed,
		}
	}

	dto := bookDTO{
		Title:       book.Metadata.Title,
		Description: book.Metadata.Description,
		Author:      book.Metadata.Author,
		Status:      book.Metadata.Status,
		Source:      book.Metadata.Source,
		Genres:      book.Metadata.Genres,
		CoverURL:    book.Metadata.CoverURL,
		Chapters:    chapters,
	}

	data, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return nil, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseSerializationFailure,
		}
	}
	return append(data, '\n'), nil
}
