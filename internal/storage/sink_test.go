package storage_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBook() novel.Book {
	return novel.Book{
		Metadata: novel.Metadata{
			Title:       "Overlord",
			Description: "The final hour of the popular virtual reality game Yggdrasil has come.",
			Author:      "Kugane Maruyama",
			Status:      "Completed",
			Source:      "https://example.com/novel/overlord",
			Genres:      []string{"Fantasy", "Action"},
		},
		Chapters: []novel.ChapterRecord{
			{Title: "Chapter 1", Content: "<p>The game servers were shutting down.</p>"},
			{Title: "Chapter 2", Content: novel.PlaceholderContent, Failed: true},
			{Title: "Chapter 3", Content: "<p>The Great Tomb of Nazarick stood silent.</p>"},
		},
	}
}

func TestSafeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Overlord", want: "Overlord"},
		{title: "Re:Zero - Starting Life!", want: "Re_Zero___Starting_Life_"},
		{title: "Mushoku Tensei 2", want: "Mushoku_Tensei_2"},
		{title: "異世界", want: "___"},
		{title: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, storage.SafeTitle(tt.title))
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"epub", "json", "markdown"} {
		format, ok := storage.ParseFormat(valid)
		assert.True(t, ok)
		assert.Equal(t, valid, string(format))
	}

	_, ok := storage.ParseFormat("pdf")
	assert.False(t, ok)
}

func TestNewSink_UnsupportedFormat(t *testing.T) {
	_, err := storage.NewSink(storage.Format("pdf"), &metadata.NoopSink{})
	require.NotNil(t, err)
}

func TestJSONSink_Write(t *testing.T) {
	outputDir := t.TempDir()
	sink := storage.NewJSONSink(&metadata.NoopSink{})

	writeResult, err := sink.Write(outputDir, testBook())
	require.Nil(t, err)

	assert.Equal(t, filepath.Join(outputDir, "Overlord.json"), writeResult.Path())
	assert.NotEmpty(t, writeResult.ContentHash())

	data, readErr := os.ReadFile(writeResult.Path())
	require.NoError(t, readErr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Overlord", decoded["title"])
	assert.Equal(t, "Kugane Maruyama", decoded["author"])

	chapters, ok := decoded["chapters"].([]any)
	require.True(t, ok)
	require.Len(t, chapters, 3)

	second, ok := chapters[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, novel.PlaceholderContent, second["content"])
	assert.Equal(t, true, second["failed"])
}

func TestEpubSink_Write(t *testing.T) {
	outputDir := t.TempDir()
	sink := storage.NewEpubSink(&metadata.NoopSink{})

	writeResult, err := sink.Write(outputDir, testBook())
	require.Nil(t, err)

	assert.Equal(t, filepath.Join(outputDir, "Overlord.epub"), writeResult.Path())

	data, readErr := os.ReadFile(writeResult.Path())
	require.NoError(t, readErr)

	zipReader, zipErr := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, zipErr)
	require.NotEmpty(t, zipReader.File)

	// The mimetype entry must come first, uncompressed, with the fixed value.
	first := zipReader.File[0]
	assert.Equal(t, "mimetype", first.Name)
	assert.Equal(t, zip.Store, first.Method)

	names := make(map[string]bool)
	for _, f := range zipReader.File {
		names[f.Name] = true
	}
	assert.True(t, names["META-INF/container.xml"])
	assert.True(t, names["OEBPS/content.opf"])
	assert.True(t, names["OEBPS/toc.ncx"])
	assert.True(t, names["OEBPS/Text/contents.xhtml"])
	assert.True(t, names["OEBPS/Text/chapter-000.xhtml"])
	assert.True(t, names["OEBPS/Text/chapter-002.xhtml"])

	opf := readZipEntry(t, zipReader, "OEBPS/content.opf")
	assert.Contains(t, opf, "urn:uuid:")
	assert.Contains(t, opf, "Overlord")
	assert.Contains(t, opf, "Kugane Maruyama")

	// A book without a downloaded cover gets no cover page.
	assert.False(t, names["OEBPS/Text/cover.xhtml"])
}

func TestEpubSink_Write_WithCover(t *testing.T) {
	outputDir := t.TempDir()
	coverPath := filepath.Join(t.TempDir(), "cover.jpg")
	require.NoError(t, os.WriteFile(coverPath, []byte("jpegdata"), 0644))

	book := testBook()
	book.Metadata.LocalCoverPath = coverPath

	sink := storage.NewEpubSink(&metadata.NoopSink{})
	writeResult, err := sink.Write(outputDir, book)
	require.Nil(t, err)

	data, readErr := os.ReadFile(writeResult.Path())
	require.NoError(t, readErr)

	zipReader, zipErr := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, zipErr)

	names := make(map[string]bool)
	for _, f := range zipReader.File {
		names[f.Name] = true
	}
	assert.True(t, names["OEBPS/cover.jpg"])
	assert.True(t, names["OEBPS/Text/cover.xhtml"])
}

func TestEpubSink_Write_MissingCoverDegrades(t *testing.T) {
	outputDir := t.TempDir()

	book := testBook()
	book.Metadata.LocalCoverPath = filepath.Join(t.TempDir(), "does-not-exist.jpg")

	sink := storage.NewEpubSink(&metadata.NoopSink{})
	writeResult, err := sink.Write(outputDir, book)
	require.Nil(t, err)
	assert.NotEmpty(t, writeResult.Path())
}

func TestMarkdownSink_Write(t *testing.T) {
	outputDir := t.TempDir()
	sink := storage.NewMarkdownSink(&metadata.NoopSink{})

	writeResult, err := sink.Write(outputDir, testBook())
	require.Nil(t, err)

	data, readErr := os.ReadFile(writeResult.Path())
	require.NoError(t, readErr)
	markdown := string(data)

	assert.Contains(t, markdown, "# Overlord")
	assert.Contains(t, markdown, "**Author:** Kugane Maruyama")
	assert.Contains(t, markdown, "## Chapter 1")
	assert.Contains(t, markdown, "The game servers were shutting down.")
	// HTML is converted, not embedded.
	assert.NotContains(t, markdown, "<p>")
	// Placeholder text passes through verbatim.
	assert.Contains(t, markdown, novel.PlaceholderContent)
}

func TestSinks_OverwriteOnRerun(t *testing.T) {
	outputDir := t.TempDir()
	sink := storage.NewJSONSink(&metadata.NoopSink{})

	first, err := sink.Write(outputDir, testBook())
	require.Nil(t, err)
	second, err := sink.Write(outputDir, testBook())
	require.Nil(t, err)

	assert.Equal(t, first.Path(), second.Path())
	assert.Equal(t, first.ContentHash(), second.ContentHash())

	entries, readErr := os.ReadDir(outputDir)
	require.NoError(t, readErr)
	assert.Len(t, entries, 1)
}

func readZipEntry(t *testing.T, zipReader *zip.Reader, name string) string {
	t.Helper()
	for _, f := range zipReader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		return buf.String()
	}
	t.Fatalf("entry %s not found", name)
	return ""
}
