/*
Responsibilities
- Remove disallowed substructures from extracted chapter markup
- Drop nodes left empty by the removal pass

Removal is structural: nodes are matched and detached on the parsed
tree, never via pattern substitution on the markup text. This stage
ensures downstream serialization is deterministic.
*/
package sanitizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/pkg/failure"
)

// Sanitizer cleans one chapter's markup.
// Implementations must be deterministic for identical input.
type Sanitizer interface {
	Sanitize(contentHTML string) (SanitizedChapter, failure.ClassifiedError)
}

// Compile-time interface check
var _ Sanitizer = (*ChapterSanitizer)(nil)

type ChapterSanitizer struct {
	metadataSink  metadata.MetadataSink
	sanitizeParam SanitizeParam
}

func NewChapterSanitizer(
	metadataSink metadata.MetadataSink,
	sanitizeParam SanitizeParam,
) ChapterSanitizer {
	return ChapterSanitizer{
		metadataSink:  metadataSink,
		sanitizeParam: sanitizeParam,
	}
}

func (c *ChapterSanitizer) Sanitize(contentHTML string) (SanitizedChapter, failure.ClassifiedError) {
	sanitized, err := c.sanitize(contentHTML)
	if err != nil {
		var sanitizationError *SanitizationError
		errors.As(err, &sanitizationError)
		c.metadataSink.RecordError(
			time.Now(),
			"sanitizer",
			"ChapterSanitizer.Sanitize",
			mapSanitizationErrorToMetadataCause(sanitizationError),
			err.Error(),
			nil,
		)
		return SanitizedChapter{}, sanitizationError
	}
	return sanitized, nil
}

func (c *ChapterSanitizer) sanitize(contentHTML string) (SanitizedChapter, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
	if err != nil {
		return SanitizedChapter{}, &SanitizationError{
			Message:   fmt.Sprintf("failed to parse chapter markup: %v", err),
			Retryable: false,
			Cause:     ErrCauseBrokenDOM,
		}
	}

	for _, selector := range c.sanitizeParam.RemoveSelectors {
		doc.Find(selector).Remove()
	}

	body := doc.Find("body")
	if body.Length() > 0 {
		removeEmptyNodesBottomUp(body.Get(0))
	}

	cleaned, err := body.Html()
	if err != nil {
		return SanitizedChapter{}, &SanitizationError{
			Message:   fmt.Sprintf("failed to serialize sanitized markup: %v", err),
			Retryable: false,
			Cause:     ErrCauseBrokenDOM,
		}
	}

	return SanitizedChapter{
		contentHTML: strings.TrimSpace(cleaned),
	}, nil
}
