package downloader_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/novelpack/novelpack/internal/downloader"
	"github.com/novelpack/novelpack/internal/extractor"
	"github.com/novelpack/novelpack/internal/fetcher"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/internal/sanitizer"
	"github.com/novelpack/novelpack/pkg/failure"
	"github.com/novelpack/novelpack/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chapterSiteFetcher serves synthetic chapter pages. Latency per URL is
// configurable so completion order can be forced to differ from
// submission order. It also tracks the concurrent in-flight peak.
type chapterSiteFetcher struct {
	mu           sync.Mutex
	latencies    map[string]time.Duration
	failURLs     map[string]bool
	callCounts   map[string]int
	inFlight     int32
	peakInFlight int32
}

func newChapterSiteFetcher() *chapterSiteFetcher {
	return &chapterSiteFetcher{
		latencies:  map[string]time.Duration{},
		failURLs:   map[string]bool{},
		callCounts: map[string]int{},
	}
}

func (c *chapterSiteFetcher) Fetch(ctx context.Context, fetchParam fetcher.FetchParam) (fetcher.FetchResult, failure.ClassifiedError) {
	pageUrl := fetchParam.Target().String()

	current := atomic.AddInt32(&c.inFlight, 1)
	defer atomic.AddInt32(&c.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&c.peakInFlight)
		if current <= peak || atomic.CompareAndSwapInt32(&c.peakInFlight, peak, current) {
			break
		}
	}

	c.mu.Lock()
	c.callCounts[pageUrl]++
	latency := c.latencies[pageUrl]
	fail := c.failURLs[pageUrl]
	c.mu.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}

	if fail {
		return fetcher.FetchResult{}, &fetcher.FetchError{
			Message:    "server error",
			Retryable:  true,
			Cause:      fetcher.ErrCauseHTTPStatus,
			StatusCode: 500,
		}
	}

	body := fmt.Sprintf(
		`<html><body><div id="chapter-content"><p>Content of %s</p></div></body></html>`,
		pageUrl,
	)
	return fetcher.NewFetchResultForTest(fetchParam.Target(), []byte(body), 200, nil), nil
}

func makeStubs(t *testing.T, n int) []novel.ChapterStub {
	t.Helper()
	stubs := make([]novel.ChapterStub, n)
	for i := range stubs {
		target, err := novel.NewFetchTarget(fmt.Sprintf("https://example.com/c/%d", i))
		require.NoError(t, err)
		stubs[i] = novel.ChapterStub{
			Title:  fmt.Sprintf("Chapter %d", i+1),
			Target: target,
		}
	}
	return stubs
}

func newTestDownloader(chapterFetcher fetcher.Fetcher, concurrency int) downloader.BatchDownloader {
	siteExtractor := extractor.NewSiteExtractor(extractor.DefaultProfile(), &metadata.NoopSink{})
	chapterSanitizer := sanitizer.NewChapterSanitizer(&metadata.NoopSink{}, sanitizer.DefaultSanitizeParam())
	return downloader.NewBatchDownloader(
		chapterFetcher,
		siteExtractor,
		&chapterSanitizer,
		&metadata.NoopSink{},
		concurrency,
		0,
		"test-agent",
	)
}

// progressClockSink records when each chapter progress event arrives.
type progressClockSink struct {
	metadata.NoopSink
	mu    sync.Mutex
	start time.Time
	seen  []time.Duration
}

func (p *progressClockSink) RecordChapterProgress(index, total int, title string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, time.Since(p.start))
}

func TestBatchDownloader_ProgressNotDelayedByRequestDelay(t *testing.T) {
	siteFetcher := newChapterSiteFetcher()
	stubs := makeStubs(t, 1)

	requestDelay := 500 * time.Millisecond
	sink := &progressClockSink{start: time.Now()}
	siteExtractor := extractor.NewSiteExtractor(extractor.DefaultProfile(), &metadata.NoopSink{})
	chapterSanitizer := sanitizer.NewChapterSanitizer(&metadata.NoopSink{}, sanitizer.DefaultSanitizeParam())
	batchDownloader := downloader.NewBatchDownloader(
		siteFetcher,
		siteExtractor,
		&chapterSanitizer,
		sink,
		1,
		requestDelay,
		"test-agent",
	)

	begin := time.Now()
	batchDownloader.DownloadAll(context.Background(), stubs)
	total := time.Since(begin)

	// The politeness delay is still observed between requests.
	assert.GreaterOrEqual(t, total, requestDelay)

	// The progress event fires on completion, not after the delay.
	require.Len(t, sink.seen, 1)
	assert.Less(t, sink.seen[0], requestDelay/2)
}

func TestBatchDownloader_PreservesOrder(t *testing.T) {
	concurrencies := []int{1, 2, 5, 100}

	for _, concurrency := range concurrencies {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			siteFetcher := newChapterSiteFetcher()
			stubs := makeStubs(t, 12)

			// Stagger latencies so later submissions finish first.
			for i, stub := range stubs {
				siteFetcher.latencies[stub.Target.String()] = time.Duration(12-i) * time.Millisecond
			}

			batchDownloader := newTestDownloader(siteFetcher, concurrency)
			records := batchDownloader.DownloadAll(context.Background(), stubs)

			require.Len(t, records, len(stubs))
			for i, record := range records {
				assert.False(t, record.Failed)
				assert.Contains(t, record.Content, fmt.Sprintf("https://example.com/c/%d</p>", i))
			}
		})
	}
}

func TestBatchDownloader_BoundsConcurrency(t *testing.T) {
	siteFetcher := newChapterSiteFetcher()
	stubs := makeStubs(t, 20)
	for _, stub := range stubs {
		siteFetcher.latencies[stub.Target.String()] = 5 * time.Millisecond
	}

	batchDownloader := newTestDownloader(siteFetcher, 3)
	batchDownloader.DownloadAll(context.Background(), stubs)

	assert.LessOrEqual(t, atomic.LoadInt32(&siteFetcher.peakInFlight), int32(3))
}

func TestBatchDownloader_PlaceholderOnFailure(t *testing.T) {
	siteFetcher := newChapterSiteFetcher()
	stubs := makeStubs(t, 5)
	siteFetcher.failURLs[stubs[2].Target.String()] = true

	batchDownloader := newTestDownloader(siteFetcher, 2)
	records := batchDownloader.DownloadAll(context.Background(), stubs)

	require.Len(t, records, 5)
	for i, record := range records {
		if i == 2 {
			assert.True(t, record.Failed)
			assert.Equal(t, novel.PlaceholderContent, record.Content)
			assert.Equal(t, "Chapter 3", record.Title)
			continue
		}
		assert.False(t, record.Failed)
	}
}

func TestBatchDownloader_EmptyInput(t *testing.T) {
	batchDownloader := newTestDownloader(newChapterSiteFetcher(), 5)

	records := batchDownloader.DownloadAll(context.Background(), nil)

	assert.Empty(t, records)
}

func TestBatchDownloader_CancelledContextDegradesRemaining(t *testing.T) {
	siteFetcher := newChapterSiteFetcher()
	stubs := makeStubs(t, 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batchDownloader := newTestDownloader(siteFetcher, 2)
	records := batchDownloader.DownloadAll(ctx, stubs)

	require.Len(t, records, 6)
	for _, record := range records {
		assert.True(t, record.Failed)
		assert.Equal(t, novel.PlaceholderContent, record.Content)
	}
}

func TestBatchDownloader_RetriesThroughWrapper(t *testing.T) {
	siteFetcher := newChapterSiteFetcher()
	stubs := makeStubs(t, 1)
	siteFetcher.failURLs[stubs[0].Target.String()] = true

	retrying := fetcher.NewRetryingFetcher(siteFetcher, retry.NewRetryParam(time.Millisecond, 4), &metadata.NoopSink{})
	batchDownloader := newTestDownloader(&retrying, 1)

	records := batchDownloader.DownloadAll(context.Background(), stubs)

	require.Len(t, records, 1)
	assert.True(t, records[0].Failed)
	assert.Equal(t, 4, siteFetcher.callCounts[stubs[0].Target.String()])
}
