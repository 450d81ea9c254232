package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/pkg/failure"
	"github.com/novelpack/novelpack/pkg/urlutil"
)

/*
Responsibilities
- Parse fetched HTML into a DOM
- Pull structured fields out of the three page shapes:
    - Landing page: novel metadata
    - List page: chapter stubs plus an optional next-page link
    - Chapter page: title and raw content markup

Extraction Rules
- Selector-driven, per the site Profile
- Pure and synchronous: a parsed document in, structured values out
- A landing page without a title is an error; every other metadata
  field degrades to its zero value
- Chapter links are resolved against the page URL before they leave
  this package

The extractor never fetches and never mutates the document.
*/

type SiteExtractor struct {
	profile      Profile
	metadataSink metadata.MetadataSink
}

func NewSiteExtractor(
	profile Profile,
	metadataSink metadata.MetadataSink,
) SiteExtractor {
	return SiteExtractor{
		profile:      profile,
		metadataSink: metadataSink,
	}
}

// ParseDocument parses raw HTML bytes into a queryable document.
func (s *SiteExtractor) ParseDocument(htmlByte []byte) (*goquery.Document, failure.ClassifiedError) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlByte))
	if err != nil {
		extractionErr := &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
		s.recordError("SiteExtractor.ParseDocument", extractionErr, "")
		return nil, extractionErr
	}
	return doc, nil
}

// ExtractNovelMetadata reads the landing page fields. A missing title is
// fatal; all other fields are optional.
func (s *SiteExtractor) ExtractNovelMetadata(
	doc *goquery.Document,
	source novel.FetchTarget,
) (novel.Metadata, failure.ClassifiedError) {
	title := textOf(doc, s.profile.TitleSelector)
	if title == "" {
		extractionErr := &ExtractionError{
			Message:   "landing page has no title",
			Retryable: false,
			Cause:     ErrCauseMissingField,
			Field:     "title",
		}
		s.recordError("SiteExtractor.ExtractNovelMetadata", extractionErr, source.String())
		return novel.Metadata{}, extractionErr
	}

	var genres []string
	doc.Find(s.profile.GenreSelector).Each(func(_ int, sel *goquery.Selection) {
		genre := strings.TrimSpace(sel.Text())
		if genre != "" {
			genres = append(genres, genre)
		}
	})

	coverURL := ""
	if src, ok := doc.Find(s.profile.CoverSelector).First().Attr("src"); ok {
		if resolved, err := urlutil.ResolveRef(source.URL(), src); err == nil {
			coverURL = resolved.String()
		}
	}

	return novel.Metadata{
		Title:       title,
		Description: textOf(doc, s.profile.DescriptionSelector),
		Author:      textOf(doc, s.profile.AuthorSelector),
		Status:      textOf(doc, s.profile.StatusSelector),
		Source:      source.String(),
		Genres:      genres,
		CoverURL:    coverURL,
	}, nil
}

// ExtractChapterList reads one list page: the chapter stubs in document
// order and the next-page target, nil when pagination ends.
func (s *SiteExtractor) ExtractChapterList(
	doc *goquery.Document,
	page novel.FetchTarget,
) ([]novel.ChapterStub, *novel.FetchTarget, failure.ClassifiedError) {
	var stubs []novel.ChapterStub
	var linkErr *ExtractionError

	doc.Find(s.profile.ChapterLinkSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}

		resolved, err := urlutil.ResolveRef(page.URL(), href)
		if err != nil {
			linkErr = &ExtractionError{
				Message:   fmt.Sprintf("unresolvable chapter link %q: %v", href, err),
				Retryable: false,
				Cause:     ErrCauseBadLink,
			}
			return false
		}

		title := strings.TrimSpace(sel.Text())
		if title == "" {
			title = sel.AttrOr("title", resolved.String())
		}

		stubs = append(stubs, novel.ChapterStub{
			Title:  title,
			Target: novel.TargetFromURL(resolved),
		})
		return true
	})

	if linkErr != nil {
		s.recordError("SiteExtractor.ExtractChapterList", linkErr, page.String())
		return nil, nil, linkErr
	}

	var next *novel.FetchTarget
	if href, ok := doc.Find(s.profile.NextPageSelector).First().Attr("href"); ok {
		resolved, err := urlutil.ResolveRef(page.URL(), href)
		if err != nil {
			extractionErr := &ExtractionError{
				Message:   fmt.Sprintf("unresolvable next-page link %q: %v", href, err),
				Retryable: false,
				Cause:     ErrCauseBadLink,
			}
			s.recordError("SiteExtractor.ExtractChapterList", extractionErr, page.String())
			return nil, nil, extractionErr
		}
		target := novel.TargetFromURL(resolved)
		next = &target
	}

	return stubs, next, nil
}

// ExtractChapterContent reads one chapter page. The returned content is
// the container's inner markup, unsanitized.
func (s *SiteExtractor) ExtractChapterContent(
	doc *goquery.Document,
	page novel.FetchTarget,
) (string, string, failure.ClassifiedError) {
	content := doc.Find(s.profile.ChapterContentSelector).First()
	if content.Length() == 0 {
		extractionErr := &ExtractionError{
			Message:   fmt.Sprintf("no node matches %q", s.profile.ChapterContentSelector),
			Retryable: false,
			Cause:     ErrCauseNoContent,
		}
		s.recordError("SiteExtractor.ExtractChapterContent", extractionErr, page.String())
		return "", "", extractionErr
	}

	contentHTML, err := content.Html()
	if err != nil {
		extractionErr := &ExtractionError{
			Message:   fmt.Sprintf("failed to serialize content node: %v", err),
			Retryable: false,
			Cause:     ErrCauseNoContent,
		}
		s.recordError("SiteExtractor.ExtractChapterContent", extractionErr, page.String())
		return "", "", extractionErr
	}

	return textOf(doc, s.profile.ChapterTitleSelector), contentHTML, nil
}

func (s *SiteExtractor) recordError(callerMethod string, err failure.ClassifiedError, pageUrl string) {
	var extractionError *ExtractionError
	if !errors.As(err, &extractionError) {
		return
	}

	attrs := []metadata.Attribute{}
	if pageUrl != "" {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrURL, pageUrl))
	}
	if extractionError.Field != "" {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrField, extractionError.Field))
	}

	s.metadataSink.RecordError(
		time.Now(),
		"extractor",
		callerMethod,
		mapExtractionErrorToMetadataCause(extractionError),
		err.Error(),
		attrs,
	)
}

func textOf(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
