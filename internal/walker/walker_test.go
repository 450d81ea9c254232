package walker_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/novelpack/novelpack/internal/extractor"
	"github.com/novelpack/novelpack/internal/fetcher"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/internal/walker"
	"github.com/novelpack/novelpack/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageMapFetcher serves canned HTML keyed by URL and records fetch order.
type pageMapFetcher struct {
	pages    map[string]string
	fetched  []string
	failURLs map[string]bool
}

func (p *pageMapFetcher) Fetch(ctx context.Context, fetchParam fetcher.FetchParam) (fetcher.FetchResult, failure.ClassifiedError) {
	pageUrl := fetchParam.Target().String()
	p.fetched = append(p.fetched, pageUrl)

	if p.failURLs[pageUrl] {
		return fetcher.FetchResult{}, &fetcher.FetchError{
			Message:    "server error",
			Retryable:  true,
			Cause:      fetcher.ErrCauseHTTPStatus,
			StatusCode: 500,
		}
	}

	body, ok := p.pages[pageUrl]
	if !ok {
		return fetcher.FetchResult{}, &fetcher.FetchError{
			Message:    "not found",
			Retryable:  false,
			Cause:      fetcher.ErrCauseHTTPStatus,
			StatusCode: 404,
		}
	}

	return fetcher.NewFetchResultForTest(fetchParam.Target(), []byte(body), 200, nil), nil
}

func listPage(chapterHrefs []string, nextHref string) string {
	page := "<html><body><ul class=\"list-chapter\">"
	for i, href := range chapterHrefs {
		page += fmt.Sprintf("<li><a href=%q>Chapter %d</a></li>", href, i+1)
	}
	page += "</ul><ul class=\"pagination\">"
	if nextHref != "" {
		page += fmt.Sprintf("<li class=\"next\"><a href=%q>Next</a></li>", nextHref)
	}
	page += "</ul></body></html>"
	return page
}

func newTestWalker(pageFetcher fetcher.Fetcher) walker.ChapterListWalker {
	siteExtractor := extractor.NewSiteExtractor(extractor.DefaultProfile(), &metadata.NoopSink{})
	return walker.NewChapterListWalker(pageFetcher, siteExtractor, &metadata.NoopSink{}, "test-agent")
}

func TestChapterListWalker_WalksAllPagesInOrder(t *testing.T) {
	pageFetcher := &pageMapFetcher{
		pages: map[string]string{
			"https://example.com/novel/chapters":        listPage([]string{"/c/1", "/c/2"}, "/novel/chapters?page=2"),
			"https://example.com/novel/chapters?page=2": listPage([]string{"/c/3", "/c/4"}, "/novel/chapters?page=3"),
			"https://example.com/novel/chapters?page=3": listPage([]string{"/c/5"}, ""),
		},
	}
	chapterWalker := newTestWalker(pageFetcher)

	start, err := novel.NewFetchTarget("https://example.com/novel/chapters")
	require.NoError(t, err)

	stubs, walkErr := chapterWalker.Discover(context.Background(), start)
	require.Nil(t, walkErr)

	// One fetch per list page, no more.
	assert.Equal(t, []string{
		"https://example.com/novel/chapters",
		"https://example.com/novel/chapters?page=2",
		"https://example.com/novel/chapters?page=3",
	}, pageFetcher.fetched)

	require.Len(t, stubs, 5)
	for i, stub := range stubs {
		assert.Equal(t, fmt.Sprintf("https://example.com/c/%d", i+1), stub.Target.String())
	}
}

func TestChapterListWalker_AbortsOnPageFailure(t *testing.T) {
	pageFetcher := &pageMapFetcher{
		pages: map[string]string{
			"https://example.com/novel/chapters":        listPage([]string{"/c/1"}, "/novel/chapters?page=2"),
			"https://example.com/novel/chapters?page=3": listPage([]string{"/c/3"}, ""),
		},
		failURLs: map[string]bool{
			"https://example.com/novel/chapters?page=2": true,
		},
	}
	chapterWalker := newTestWalker(pageFetcher)

	start, err := novel.NewFetchTarget("https://example.com/novel/chapters")
	require.NoError(t, err)

	stubs, walkErr := chapterWalker.Discover(context.Background(), start)

	require.NotNil(t, walkErr)
	assert.Nil(t, stubs)

	var wErr *walker.WalkError
	require.True(t, errors.As(walkErr, &wErr))
	assert.Equal(t, walker.ErrCausePageFetchFailed, wErr.Cause)

	// The underlying fetch failure stays reachable.
	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(walkErr, &fetchErr))
	assert.Equal(t, 500, fetchErr.StatusCode)

	// Nothing past the failing page is fetched.
	assert.Len(t, pageFetcher.fetched, 2)
}

func TestChapterListWalker_DetectsPaginationLoop(t *testing.T) {
	pageFetcher := &pageMapFetcher{
		pages: map[string]string{
			"https://example.com/novel/chapters":        listPage([]string{"/c/1"}, "/novel/chapters?page=2"),
			"https://example.com/novel/chapters?page=2": listPage([]string{"/c/2"}, "/novel/chapters"),
		},
	}
	chapterWalker := newTestWalker(pageFetcher)

	start, err := novel.NewFetchTarget("https://example.com/novel/chapters")
	require.NoError(t, err)

	_, walkErr := chapterWalker.Discover(context.Background(), start)

	require.NotNil(t, walkErr)

	var wErr *walker.WalkError
	require.True(t, errors.As(walkErr, &wErr))
	assert.Equal(t, walker.ErrCausePaginationLoop, wErr.Cause)
}

func TestChapterListWalker_LoopGuardIgnoresSpellingVariants(t *testing.T) {
	// The second page links back to the first page with a trailing slash;
	// the canonical visited key still catches the loop.
	pageFetcher := &pageMapFetcher{
		pages: map[string]string{
			"https://example.com/novel/chapters":        listPage([]string{"/c/1"}, "/novel/chapters?page=2"),
			"https://example.com/novel/chapters?page=2": listPage([]string{"/c/2"}, "/novel/chapters/"),
		},
	}
	chapterWalker := newTestWalker(pageFetcher)

	start, err := novel.NewFetchTarget("https://example.com/novel/chapters")
	require.NoError(t, err)

	_, walkErr := chapterWalker.Discover(context.Background(), start)

	require.NotNil(t, walkErr)

	var wErr *walker.WalkError
	require.True(t, errors.As(walkErr, &wErr))
	assert.Equal(t, walker.ErrCausePaginationLoop, wErr.Cause)
	assert.Len(t, pageFetcher.fetched, 2)
}

func TestChapterListWalker_SinglePage(t *testing.T) {
	pageFetcher := &pageMapFetcher{
		pages: map[string]string{
			"https://example.com/novel/chapters": listPage([]string{"/c/1", "/c/2"}, ""),
		},
	}
	chapterWalker := newTestWalker(pageFetcher)

	start, err := novel.NewFetchTarget("https://example.com/novel/chapters")
	require.NoError(t, err)

	stubs, walkErr := chapterWalker.Discover(context.Background(), start)
	require.Nil(t, walkErr)

	assert.Len(t, stubs, 2)
	assert.Len(t, pageFetcher.fetched, 1)
}
