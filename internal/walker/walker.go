package walker

import (
	"context"
	"fmt"
	"time"

	"github.com/novelpack/novelpack/internal/extractor"
	"github.com/novelpack/novelpack/internal/fetcher"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/pkg/failure"
	"github.com/novelpack/novelpack/pkg/urlutil"
)

/*
Responsibilities
- Walk the paginated chapter list starting from the landing page
- Accumulate chapter stubs in document order, page after page
- Stop when a page yields no next link

Walk Semantics
- Strictly sequential: one list page in flight at a time
- Strict failure: any page that cannot be fetched or read aborts the
  whole discovery, since a gap here would silently drop chapters
- Revisiting an already-walked page URL aborts as a pagination loop

The walker knows nothing about chapter content or storage.
*/

type ChapterListWalker struct {
	fetcher       fetcher.Fetcher
	siteExtractor extractor.SiteExtractor
	metadataSink  metadata.MetadataSink
	userAgent     string
}

func NewChapterListWalker(
	pageFetcher fetcher.Fetcher,
	siteExtractor extractor.SiteExtractor,
	metadataSink metadata.MetadataSink,
	userAgent string,
) ChapterListWalker {
	return ChapterListWalker{
		fetcher:       pageFetcher,
		siteExtractor: siteExtractor,
		metadataSink:  metadataSink,
		userAgent:     userAgent,
	}
}

// Discover walks the pagination chain from start and returns every
// chapter stub in discovery order.
func (w *ChapterListWalker) Discover(
	ctx context.Context,
	start novel.FetchTarget,
) ([]novel.ChapterStub, failure.ClassifiedError) {
	var stubs []novel.ChapterStub
	visited := NewSet[string]()

	current := &start
	for current != nil {
		// The loop guard keys on the canonical URL so spelling variants
		// of the same page cannot sidestep it.
		canonicalPage := urlutil.Canonicalize(current.URL())
		pageKey := canonicalPage.String()
		if visited.Contains(pageKey) {
			walkErr := &WalkError{
				Message:   fmt.Sprintf("page %s was already walked", current),
				Retryable: false,
				Cause:     ErrCausePaginationLoop,
			}
			w.recordWalkError(walkErr, current.String())
			return nil, walkErr
		}
		visited.Add(pageKey)

		pageStubs, next, err := w.walkPage(ctx, *current)
		if err != nil {
			return nil, err
		}

		stubs = append(stubs, pageStubs...)
		current = next
	}

	return stubs, nil
}

func (w *ChapterListWalker) walkPage(
	ctx context.Context,
	page novel.FetchTarget,
) ([]novel.ChapterStub, *novel.FetchTarget, failure.ClassifiedError) {
	result, err := w.fetcher.Fetch(ctx, fetcher.NewFetchParam(page, w.userAgent))
	if err != nil {
		walkErr := &WalkError{
			Message:   fmt.Sprintf("failed to fetch list page %s: %v", page.String(), err),
			Retryable: false,
			Cause:     ErrCausePageFetchFailed,
			PageErr:   err,
		}
		w.recordWalkError(walkErr, page.String())
		return nil, nil, walkErr
	}

	doc, err := w.siteExtractor.ParseDocument(result.Body())
	if err != nil {
		return nil, nil, w.wrapExtractFailure(page, err)
	}

	pageStubs, next, err := w.siteExtractor.ExtractChapterList(doc, page)
	if err != nil {
		return nil, nil, w.wrapExtractFailure(page, err)
	}

	return pageStubs, next, nil
}

func (w *ChapterListWalker) wrapExtractFailure(page novel.FetchTarget, err failure.ClassifiedError) failure.ClassifiedError {
	walkErr := &WalkError{
		Message:   fmt.Sprintf("failed to read list page %s: %v", page.String(), err),
		Retryable: false,
		Cause:     ErrCausePageExtractFailed,
		PageErr:   err,
	}
	w.recordWalkError(walkErr, page.String())
	return walkErr
}

func (w *ChapterListWalker) recordWalkError(walkErr *WalkError, pageUrl string) {
	w.metadataSink.RecordError(
		time.Now(),
		"walker",
		"ChapterListWalker.Discover",
		mapWalkErrorToMetadataCause(walkErr),
		walkErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, pageUrl),
		},
	)
}
