package storage

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/pkg/failure"
	"github.com/novelpack/novelpack/pkg/fileutil"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

const styleCSS = `body { margin: 5%; text-align: justify; }
h1, h2 { text-align: center; }
p { text-indent: 1em; }
`

// EpubSink serializes the book into a single EPUB container. The whole
// archive is built in memory so the artifact hits disk in one write.
type EpubSink struct {
	metadataSink metadata.MetadataSink
}

func NewEpubSink(metadataSink metadata.MetadataSink) EpubSink {
	return EpubSink{
		metadataSink: metadataSink,
	}
}

func (s *EpubSink) Write(
	outputDir string,
	book novel.Book,
) (WriteResult, failure.ClassifiedError) {
	data, err := s.serializeEpub(book)
	if err != nil {
		recordStorageError(s.metadataSink, "EpubSink.Write", err)
		return WriteResult{}, err
	}

	writeResult, writeErr := persistArtifact(outputDir, book.Metadata.Title, FormatEPUB, data)
	if writeErr != nil {
		recordStorageError(s.metadataSink, "EpubSink.Write", writeErr)
		return WriteResult{}, writeErr
	}

	recordArtifact(s.metadataSink, metadata.ArtifactEPUB, writeResult)
	return writeResult, nil
}

func (s *EpubSink) serializeEpub(book novel.Book) ([]byte, *StorageError) {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	// The mimetype entry must be first and uncompressed.
	if err := addZipEntry(zipWriter, "mimetype", []byte("application/epub+zip"), zip.Store); err != nil {
		return nil, err
	}
	if err := addZipEntry(zipWriter, "META-INF/container.xml", []byte(containerXML), zip.Deflate); err != nil {
		return nil, err
	}

	coverData, coverExt := loadCover(book.Metadata.LocalCoverPath)
	hasCover := coverData != nil

	bookID := uuid.New().String()

	opfData, serErr := renderOPF(book, bookID, hasCover, coverExt)
	if serErr != nil {
		return nil, serErr
	}
	if err := addZipEntry(zipWriter, "OEBPS/content.opf", opfData, zip.Deflate); err != nil {
		return nil, err
	}

	ncxData, serErr := renderNCX(book, bookID, hasCover)
	if serErr != nil {
		return nil, serErr
	}
	if err := addZipEntry(zipWriter, "OEBPS/toc.ncx", ncxData, zip.Deflate); err != nil {
		return nil, err
	}

	if err := addZipEntry(zipWriter, "OEBPS/style.css", []byte(styleCSS), zip.Deflate); err != nil {
		return nil, err
	}

	if hasCover {
		if err := addZipEntry(zipWriter, "OEBPS/cover"+coverExt, coverData, zip.Deflate); err != nil {
			return nil, err
		}
		coverPage := renderCoverXHTML("cover" + coverExt)
		if err := addZipEntry(zipWriter, "OEBPS/Text/cover.xhtml", coverPage, zip.Deflate); err != nil {
			return nil, err
		}
	}

	contentsPage := renderContentsXHTML(book)
	if err := addZipEntry(zipWriter, "OEBPS/Text/contents.xhtml", contentsPage, zip.Deflate); err != nil {
		return nil, err
	}

	for i, chapter := range book.Chapters {
		chapterPage := renderChapterXHTML(chapter)
		entryName := fmt.Sprintf("OEBPS/Text/chapter-%03d.xhtml", i)
		if err := addZipEntry(zipWriter, entryName, chapterPage, zip.Deflate); err != nil {
			return nil, err
		}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseSerializationFailure,
		}
	}

	return buf.Bytes(), nil
}

func addZipEntry(zipWriter *zip.Writer, name string, data []byte, method uint16) *StorageError {
	header := &zip.FileHeader{
		Name:   name,
		Method: method,
	}
	writer, err := zipWriter.CreateHeader(header)
	if err == nil {
		_, err = writer.Write(data)
	}
	if err != nil {
		return &StorageError{
			Message:   fmt.Sprintf("failed to add %s: %v", name, err),
			Retryable: false,
			Cause:     ErrCauseSerializationFailure,
		}
	}
	return nil
}

// loadCover reads the locally downloaded cover image. A missing or
// unreadable cover degrades to a coverless book.
func loadCover(localCoverPath string) ([]byte, string) {
	if localCoverPath == "" {
		return nil, ""
	}
	data, err := os.ReadFile(localCoverPath)
	if err != nil || len(data) == 0 {
		return nil, ""
	}
	ext := strings.ToLower(fileutil.GetFileExtension(localCoverPath))
	if ext == "" {
		ext = "jpg"
	}
	return data, "." + ext
}

func coverMediaType(coverExt string) string {
	switch coverExt {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func renderOPF(book novel.Book, bookID string, hasCover bool, coverExt string) ([]byte, *StorageError) {
	meta := dcMetadata{
		XmlnsDC:  "http://purl.org/dc/elements/1.1/",
		XmlnsOPF: "http://www.idpf.org/2007/opf",
		Titles:   []dcValue{{Value: book.Metadata.Title}},
		Identifiers: []dcIdentifier{{
			Value:  "urn:uuid:" + bookID,
			ID:     "book-id",
			Scheme: "UUID",
		}},
		Languages: []dcValue{{Value: "en"}},
		Dates:     []dcDate{{Value: time.Now().UTC().Format("2006-01-02")}},
	}
	if book.Metadata.Author != "" {
		meta.Creators = []dcCreator{{Value: book.Metadata.Author, Role: "aut"}}
	}
	if book.Metadata.Description != "" {
		meta.Descriptions = []dcValue{{Value: book.Metadata.Description}}
	}
	if book.Metadata.Source != "" {
		meta.Sources = []dcValue{{Value: book.Metadata.Source}}
	}
	for _, genre := range book.Metadata.Genres {
		meta.Subjects = append(meta.Subjects, dcValue{Value: genre})
	}
	if hasCover {
		meta.Metas = append(meta.Metas, opfMeta{Name: "cover", Content: "cover-image"})
	}

	items := []manifestItem{
		{ID: "ncx", Link: "toc.ncx", Media: "application/x-dtbncx+xml"},
		{ID: "style", Link: "style.css", Media: "text/css"},
	}
	if hasCover {
		items = append(items,
			manifestItem{
				ID:         "cover-image",
				Link:       "cover" + coverExt,
				Media:      coverMediaType(coverExt),
				Properties: "cover-image",
			},
			manifestItem{ID: "cover", Link: "Text/cover.xhtml", Media: "application/xhtml+xml"},
		)
	}
	items = append(items, manifestItem{ID: "contents", Link: "Text/contents.xhtml", Media: "application/xhtml+xml"})
	for i := range book.Chapters {
		items = append(items, manifestItem{
			ID:    fmt.Sprintf("chapter-%03d", i),
			Link:  fmt.Sprintf("Text/chapter-%03d.xhtml", i),
			Media: "application/xhtml+xml",
		})
	}

	spineItems := make([]spineItem, 0, len(items))
	if hasCover {
		spineItems = append(spineItems, spineItem{IDref: "cover"})
	}
	spineItems = append(spineItems, spineItem{IDref: "contents"})
	for i := range book.Chapters {
		spineItems = append(spineItems, spineItem{IDref: fmt.Sprintf("chapter-%03d", i)})
	}

	doc := packageDocument{
		Xmlns:            "http://www.idpf.org/2007/opf",
		Version:          "2.0",
		UniqueIdentifier: "book-id",
		Metadata:         meta,
		Manifest:         manifest{Items: items},
		Spine:            spine{Toc: "ncx", Items: spineItems},
		Guide: &guide{Items: []guideItem{
			{Title: "Table of Contents", Type: "toc", Link: "Text/contents.xhtml"},
		}},
	}

	return marshalXML(doc)
}

func renderNCX(book novel.Book, bookID string, hasCover bool) ([]byte, *StorageError) {
	var points []navPoint
	order := 1
	if hasCover {
		points = append(points, navPoint{
			ID:        "cover",
			PlayOrder: order,
			Label:     "Cover",
			Content:   navPointContent{Src: "Text/cover.xhtml"},
		})
		order++
	}
	points = append(points, navPoint{
		ID:        "contents",
		PlayOrder: order,
		Label:     "Table of Contents",
		Content:   navPointContent{Src: "Text/contents.xhtml"},
	})
	order++
	for i, chapter := range book.Chapters {
		points = append(points, navPoint{
			ID:        fmt.Sprintf("chapter-%03d", i),
			PlayOrder: order,
			Label:     chapter.Title,
			Content:   navPointContent{Src: fmt.Sprintf("Text/chapter-%03d.xhtml", i)},
		})
		order++
	}

	doc := ncxDocument{
		Xmlns:   "http://www.daisy.org/z3986/2005/ncx/",
		Version: "2005-1",
		Head: ncxHead{Metas: []ncxMeta{
			{Name: "dtb:uid", Content: "urn:uuid:" + bookID},
			{Name: "dtb:depth", Content: "1"},
		}},
		DocTitle: ncxText{Text: book.Metadata.Title},
		NavMap:   ncxNav{Points: points},
	}

	return marshalXML(doc)
}

func marshalXML(doc any) ([]byte, *StorageError) {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseSerializationFailure,
		}
	}
	return append([]byte(xml.Header), data...), nil
}

func renderCoverXHTML(coverHref string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Cover</title></head>
<body><div style="text-align: center;"><img src="../%s" alt="cover"/></div></body>
</html>
`, coverHref))
}

func renderContentsXHTML(book novel.Book) []byte {
	var toc strings.Builder
	toc.WriteString(`<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Table of Contents</title><link rel="stylesheet" type="text/css" href="../style.css"/></head>
<body><h1>Table of Contents</h1><ol>
`)
	for i, chapter := range book.Chapters {
		toc.WriteString(fmt.Sprintf("<li><a href=\"chapter-%03d.xhtml\">%s</a></li>\n", i, html.EscapeString(chapter.Title)))
	}
	toc.WriteString("</ol></body>\n</html>\n")
	return []byte(toc.String())
}

func renderChapterXHTML(chapter novel.ChapterRecord) []byte {
	content := chapter.Content
	if chapter.Failed {
		content = "<p>" + html.EscapeString(chapter.Content) + "</p>"
	}
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>%s</title><link rel="stylesheet" type="text/css" href="../style.css"/></head>
<body><h2>%s</h2>
%s
</body>
</html>
`, html.EscapeString(chapter.Title), html.EscapeString(chapter.Title), content))
}
