package assembler

import (
	"github.com/novelpack/novelpack/internal/novel"
)

// Assemble combines run metadata and downloaded chapter records into a
// Book. It is pure: the inputs are copied, never aliased, so calling it
// again with the same inputs yields an identical value.
func Assemble(meta novel.Metadata, records []novel.ChapterRecord) novel.Book {
	chapters := make([]novel.ChapterRecord, len(records))
	copy(chapters, records)

	if meta.Genres != nil {
		genres := make([]string, len(meta.Genres))
		copy(genres, meta.Genres)
		meta.Genres = genres
	}

	return novel.Book{
		Metadata: meta,
		Chapters: chapters,
	}
}

// FailedCount reports how many chapters degraded to placeholders.
func FailedCount(book novel.Book) int {
	failed := 0
	for _, chapter := range book.Chapters {
		if chapter.Failed {
			failed++
		}
	}
	return failed
}
