package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/novelpack/novelpack/internal/assembler"
	"github.com/novelpack/novelpack/internal/config"
	"github.com/novelpack/novelpack/internal/cover"
	"github.com/novelpack/novelpack/internal/downloader"
	"github.com/novelpack/novelpack/internal/extractor"
	"github.com/novelpack/novelpack/internal/fetcher"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/internal/sanitizer"
	"github.com/novelpack/novelpack/internal/storage"
	"github.com/novelpack/novelpack/internal/walker"
	"github.com/novelpack/novelpack/pkg/failure"
	"github.com/novelpack/novelpack/pkg/retry"
	"go.uber.org/zap"
)

/*
 Scheduler is the sole control-plane authority of a run.

 Determinism and lifecycle guarantees:
 - The run moves through a closed state machine; every transition is
   checked against the table in data.go.
 - Pipeline stages may detect and classify failure, but must never
   decide retry, continuation, or abortion.
 - Chapter download failures never fail the run: they degrade to
   placeholder records and the run proceeds to packaging.
 - Metadata emission is observational only and MUST NOT influence
   scheduling, retries, or run termination.

 Scheduler Responsibilities:
 - Coordinate the run lifecycle
 - Manage graceful shutdown
 - Aggregate run statistics
 - The sole authority on:
	- retry
	- continue
	- abort
*/

type Scheduler struct {
	cfg             config.Config
	metadataSink    metadata.MetadataSink
	runFinalizer    metadata.RunFinalizer
	pageFetcher     fetcher.Fetcher
	chapterFetcher  fetcher.Fetcher
	siteExtractor   extractor.SiteExtractor
	listWalker      walker.ChapterListWalker
	batchDownloader downloader.BatchDownloader
	coverDownloader cover.Downloader
	storageSink     storage.Sink
	state           RunState
}

func NewScheduler(cfg config.Config, logger *zap.Logger) (Scheduler, failure.ClassifiedError) {
	recorder := metadata.NewRecorder(logger)

	storageSink, err := storage.NewSink(cfg.Format(), &recorder)
	if err != nil {
		return Scheduler{}, err
	}

	htmlFetcher := fetcher.NewHtmlFetcher(&recorder, cfg.Timeout())
	retryParam := retry.NewRetryParam(cfg.RetryDelay(), cfg.Retries()+1)
	retryingFetcher := fetcher.NewRetryingFetcher(&htmlFetcher, retryParam, &recorder)

	siteExtractor := extractor.NewSiteExtractor(extractor.DefaultProfile(), &recorder)
	chapterSanitizer := sanitizer.NewChapterSanitizer(&recorder, sanitizer.DefaultSanitizeParam())

	listWalker := walker.NewChapterListWalker(&retryingFetcher, siteExtractor, &recorder, cfg.UserAgent())
	batchDownloader := downloader.NewBatchDownloader(
		&retryingFetcher,
		siteExtractor,
		&chapterSanitizer,
		&recorder,
		cfg.Concurrency(),
		cfg.RequestDelay(),
		cfg.UserAgent(),
	)
	coverDownloader := cover.NewDownloader(&recorder, cfg.Timeout())

	return Scheduler{
		cfg:             cfg,
		metadataSink:    &recorder,
		runFinalizer:    &recorder,
		pageFetcher:     &retryingFetcher,
		chapterFetcher:  &retryingFetcher,
		siteExtractor:   siteExtractor,
		listWalker:      listWalker,
		batchDownloader: batchDownloader,
		coverDownloader: coverDownloader,
		storageSink:     storageSink,
		state:           StateIdle,
	}, nil
}

// NewSchedulerWithDeps creates a Scheduler with injected dependencies for testing.
// This constructor allows tests to provide mock implementations
// to verify behavior without relying on real infrastructure.
func NewSchedulerWithDeps(
	cfg config.Config,
	metadataSink metadata.MetadataSink,
	runFinalizer metadata.RunFinalizer,
	pageFetcher fetcher.Fetcher,
	storageSink storage.Sink,
) Scheduler {
	siteExtractor := extractor.NewSiteExtractor(extractor.DefaultProfile(), metadataSink)
	chapterSanitizer := sanitizer.NewChapterSanitizer(metadataSink, sanitizer.DefaultSanitizeParam())

	listWalker := walker.NewChapterListWalker(pageFetcher, siteExtractor, metadataSink, cfg.UserAgent())
	batchDownloader := downloader.NewBatchDownloader(
		pageFetcher,
		siteExtractor,
		&chapterSanitizer,
		metadataSink,
		cfg.Concurrency(),
		cfg.RequestDelay(),
		cfg.UserAgent(),
	)
	coverDownloader := cover.NewDownloader(metadataSink, cfg.Timeout())

	return Scheduler{
		cfg:             cfg,
		metadataSink:    metadataSink,
		runFinalizer:    runFinalizer,
		pageFetcher:     pageFetcher,
		chapterFetcher:  pageFetcher,
		siteExtractor:   siteExtractor,
		listWalker:      listWalker,
		batchDownloader: batchDownloader,
		coverDownloader: coverDownloader,
		storageSink:     storageSink,
		state:           StateIdle,
	}
}

// ExecuteRun drives one complete packaging run.
func (s *Scheduler) ExecuteRun(ctx context.Context) (RunSummary, failure.ClassifiedError) {
	startTime := time.Now()

	landing, targetErr := novel.NewFetchTarget(s.cfg.NovelURL())
	if targetErr != nil {
		return RunSummary{}, s.failRun(StateIdle, &SchedulerError{
			Message:   targetErr.Error(),
			Retryable: false,
			Cause:     ErrCauseInvalidNovelURL,
		})
	}

	// FetchingMetadata
	if err := s.transition(StateFetchingMetadata); err != nil {
		return RunSummary{}, err
	}
	meta, err := s.fetchMetadata(ctx, landing)
	if err != nil {
		return RunSummary{}, s.failRun(s.state, err)
	}

	// DiscoveringChapters
	if err := s.transition(StateDiscoveringChapters); err != nil {
		return RunSummary{}, err
	}
	stubs, err := s.listWalker.Discover(ctx, landing)
	if err != nil {
		return RunSummary{}, s.failRun(s.state, &SchedulerError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseDiscoveryFailed,
			StageErr:  err,
		})
	}

	// DownloadingChapters: never fatal.
	if err := s.transition(StateDownloadingChapters); err != nil {
		return RunSummary{}, err
	}
	records := s.batchDownloader.DownloadAll(ctx, stubs)

	// The cover is fetched alongside packaging; failure means no cover.
	if meta.CoverURL != "" {
		meta.LocalCoverPath = s.coverDownloader.Download(ctx, meta.CoverURL, s.cfg.OutputDir())
	}

	// Assembling
	if err := s.transition(StateAssembling); err != nil {
		return RunSummary{}, err
	}
	book := assembler.Assemble(meta, records)

	// Writing
	if err := s.transition(StateWriting); err != nil {
		return RunSummary{}, err
	}
	writeResult, err := s.storageSink.Write(s.cfg.OutputDir(), book)
	if err != nil {
		return RunSummary{}, s.failRun(s.state, &SchedulerError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailed,
			StageErr:  err,
		})
	}

	// Done
	if err := s.transition(StateDone); err != nil {
		return RunSummary{}, err
	}

	failedChapters := assembler.FailedCount(book)
	s.runFinalizer.RecordFinalRunStats(len(book.Chapters), failedChapters, time.Since(startTime))

	return NewRunSummary(writeResult.Path(), len(book.Chapters), failedChapters), nil
}

func (s *Scheduler) fetchMetadata(ctx context.Context, landing novel.FetchTarget) (novel.Metadata, failure.ClassifiedError) {
	result, err := s.pageFetcher.Fetch(ctx, fetcher.NewFetchParam(landing, s.cfg.UserAgent()))
	if err != nil {
		return novel.Metadata{}, &SchedulerError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseMetadataFetchFailed,
			StageErr:  err,
		}
	}

	doc, err := s.siteExtractor.ParseDocument(result.Body())
	if err != nil {
		return novel.Metadata{}, &SchedulerError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseMetadataFetchFailed,
			StageErr:  err,
		}
	}

	meta, err := s.siteExtractor.ExtractNovelMetadata(doc, landing)
	if err != nil {
		return novel.Metadata{}, &SchedulerError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseMetadataFetchFailed,
			StageErr:  err,
		}
	}

	return meta, nil
}

// transition moves the run to the next state, enforcing the table.
func (s *Scheduler) transition(to RunState) failure.ClassifiedError {
	if !transitionAllowed(s.state, to) {
		schedErr := &SchedulerError{
			Message:   fmt.Sprintf("cannot move from %s to %s", s.state, to),
			Retryable: false,
			Cause:     ErrCauseIllegalTransition,
		}
		s.recordSchedulerError(schedErr)
		return schedErr
	}

	from := s.state
	s.state = to
	s.metadataSink.RecordStateChange(string(from), string(to))
	return nil
}

// failRun moves the run to Failed and passes the causing error through.
func (s *Scheduler) failRun(from RunState, err failure.ClassifiedError) failure.ClassifiedError {
	if transitionAllowed(from, StateFailed) {
		s.state = StateFailed
		s.metadataSink.RecordStateChange(string(from), string(StateFailed))
	}

	var schedErr *SchedulerError
	if se, ok := err.(*SchedulerError); ok {
		schedErr = se
	} else {
		schedErr = &SchedulerError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseMetadataFetchFailed,
			StageErr:  err,
		}
	}
	s.recordSchedulerError(schedErr)
	return err
}

func (s *Scheduler) recordSchedulerError(schedErr *SchedulerError) {
	s.metadataSink.RecordError(
		time.Now(),
		"scheduler",
		"Scheduler.ExecuteRun",
		mapSchedulerErrorToMetadataCause(schedErr),
		schedErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrState, string(s.state)),
		},
	)
}

// State exposes the current run state for tests and progress display.
func (s *Scheduler) State() RunState {
	return s.state
}
