package mdconvert

import (
	"errors"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/sanitizer"
	"github.com/novelpack/novelpack/pkg/failure"
)

/*
Design Principles
- Semantic fidelity over visual fidelity
- No inferred structure
- DOM order preserved

Conversion Rules
- Headings map directly (h1-h6 to # - ######)
- Tables converted structurally (GFM)
- Links and images preserved as-is (no resolution)

Inline styles and raw HTML are avoided.
*/

// ConvertRule defines the interface for converting sanitized chapter
// markup to Markdown. Implementations must be deterministic.
type ConvertRule interface {
	Convert(sanitizedChapter sanitizer.SanitizedChapter) (ConversionResult, failure.ClassifiedError)
}

// Compile-time interface check
var _ ConvertRule = (*StrictConversionRule)(nil)

type StrictConversionRule struct {
	metadataSink metadata.MetadataSink
}

func NewRule(metadataSink metadata.MetadataSink) *StrictConversionRule {
	return &StrictConversionRule{
		metadataSink: metadataSink,
	}
}

func (s *StrictConversionRule) Convert(
	sanitizedChapter sanitizer.SanitizedChapter,
) (ConversionResult, failure.ClassifiedError) {
	conversionResult, err := convert(sanitizedChapter.ContentHTML())
	if err != nil {
		var conversionError *ConversionError
		errors.As(err, &conversionError)

		s.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"StrictConversionRule.Convert",
			mapConversionErrorToMetadataCause(conversionError),
			err.Error(),
			[]metadata.Attribute{},
		)
		return ConversionResult{}, conversionError
	}
	return conversionResult, nil
}

// convert is a stateless pure function that transforms sanitized chapter
// markup into markdown content.
// It uses the html-to-markdown/v2 library for deterministic, semantic conversion.
func convert(contentHTML string) (ConversionResult, *ConversionError) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	markdown, err := conv.ConvertString(contentHTML)
	if err != nil {
		return ConversionResult{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	return NewConversionResult([]byte(markdown)), nil
}
