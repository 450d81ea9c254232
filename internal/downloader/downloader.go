package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/novelpack/novelpack/internal/extractor"
	"github.com/novelpack/novelpack/internal/fetcher"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/internal/sanitizer"
)

/*
Responsibilities
- Fetch every discovered chapter with bounded concurrency
- Preserve discovery order in the result regardless of completion order
- Degrade failed chapters to placeholder records, never abort

Batch Semantics
- Chapters are processed in sequential batches of at most `concurrency`
- Each batch member runs in its own goroutine and writes only its own
  pre-assigned result index, so no locking is needed
- The inter-request delay runs inside each task, after its fetch
- A cancelled context stops scheduling new batches; the remaining
  chapters become placeholder records

DownloadAll never returns an error: a chapter either downloads or
degrades, and the run continues either way.
*/

type BatchDownloader struct {
	fetcher          fetcher.Fetcher
	siteExtractor    extractor.SiteExtractor
	chapterSanitizer sanitizer.Sanitizer
	metadataSink     metadata.MetadataSink
	concurrency      int
	requestDelay     time.Duration
	userAgent        string
}

func NewBatchDownloader(
	chapterFetcher fetcher.Fetcher,
	siteExtractor extractor.SiteExtractor,
	chapterSanitizer sanitizer.Sanitizer,
	metadataSink metadata.MetadataSink,
	concurrency int,
	requestDelay time.Duration,
	userAgent string,
) BatchDownloader {
	if concurrency < 1 {
		concurrency = 1
	}
	return BatchDownloader{
		fetcher:          chapterFetcher,
		siteExtractor:    siteExtractor,
		chapterSanitizer: chapterSanitizer,
		metadataSink:     metadataSink,
		concurrency:      concurrency,
		requestDelay:     requestDelay,
		userAgent:        userAgent,
	}
}

// DownloadAll fetches every stub and returns one record per stub, in
// stub order: records[i] always corresponds to stubs[i].
func (b *BatchDownloader) DownloadAll(
	ctx context.Context,
	stubs []novel.ChapterStub,
) []novel.ChapterRecord {
	records := make([]novel.ChapterRecord, len(stubs))
	total := len(stubs)

	for batchStart := 0; batchStart < total; batchStart += b.concurrency {
		if ctx.Err() != nil {
			b.fillRemainingWithPlaceholders(records, stubs, batchStart, total)
			break
		}

		batchEnd := batchStart + b.concurrency
		if batchEnd > total {
			batchEnd = total
		}

		var wg sync.WaitGroup
		for idx := batchStart; idx < batchEnd; idx++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				records[idx] = b.downloadOne(ctx, stubs[idx])
				// Progress first: the politeness delay must not hold
				// back the completion event.
				b.metadataSink.RecordChapterProgress(idx+1, total, stubs[idx].Title, !records[idx].Failed)
				if b.requestDelay > 0 {
					time.Sleep(b.requestDelay)
				}
			}(idx)
		}
		wg.Wait()
	}

	return records
}

func (b *BatchDownloader) downloadOne(ctx context.Context, stub novel.ChapterStub) novel.ChapterRecord {
	result, err := b.fetcher.Fetch(ctx, fetcher.NewFetchParam(stub.Target, b.userAgent))
	if err != nil {
		return b.placeholderRecord(stub, metadata.CauseRetryFailure)
	}

	doc, err := b.siteExtractor.ParseDocument(result.Body())
	if err != nil {
		return b.placeholderRecord(stub, metadata.CauseContentInvalid)
	}

	pageTitle, contentHTML, err := b.siteExtractor.ExtractChapterContent(doc, stub.Target)
	if err != nil {
		return b.placeholderRecord(stub, metadata.CauseContentInvalid)
	}

	sanitized, err := b.chapterSanitizer.Sanitize(contentHTML)
	if err != nil {
		return b.placeholderRecord(stub, metadata.CauseContentInvalid)
	}

	title := stub.Title
	if pageTitle != "" {
		title = pageTitle
	}

	return novel.ChapterRecord{
		Title:   title,
		Content: sanitized.ContentHTML(),
		Failed:  false,
	}
}

// placeholderRecord degrades a failed chapter. The stage that failed
// has already recorded the error; here we only note the degradation.
func (b *BatchDownloader) placeholderRecord(stub novel.ChapterStub, cause metadata.ErrorCause) novel.ChapterRecord {
	b.metadataSink.RecordError(
		time.Now(),
		"downloader",
		"BatchDownloader.DownloadAll",
		cause,
		fmt.Sprintf("chapter %q degraded to placeholder", stub.Title),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, stub.Target.String()),
		},
	)
	return novel.ChapterRecord{
		Title:   stub.Title,
		Content: novel.PlaceholderContent,
		Failed:  true,
	}
}

func (b *BatchDownloader) fillRemainingWithPlaceholders(
	records []novel.ChapterRecord,
	stubs []novel.ChapterStub,
	from, total int,
) {
	for idx := from; idx < total; idx++ {
		records[idx] = novel.ChapterRecord{
			Title:   stubs[idx].Title,
			Content: novel.PlaceholderContent,
			Failed:  true,
		}
		b.metadataSink.RecordChapterProgress(idx+1, total, stubs[idx].Title, false)
	}
}
