package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/pkg/failure"
	"github.com/novelpack/novelpack/pkg/retry"
)

/*
RetryingFetcher wraps a single-attempt Fetcher with the retry policy.

Semantics
 - At most MaxAttempts calls to the inner fetcher per Fetch
 - Constant delay between attempts
 - Non-retryable inner errors short-circuit the loop
 - On exhaustion the returned error unwraps to the last inner error
*/
type RetryingFetcher struct {
	inner        Fetcher
	retryParam   retry.RetryParam
	metadataSink metadata.MetadataSink
}

func NewRetryingFetcher(
	inner Fetcher,
	retryParam retry.RetryParam,
	metadataSink metadata.MetadataSink,
) RetryingFetcher {
	return RetryingFetcher{
		inner:        inner,
		retryParam:   retryParam,
		metadataSink: metadataSink,
	}
}

func (r *RetryingFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
) (FetchResult, failure.ClassifiedError) {
	fetchTask := func() (FetchResult, failure.ClassifiedError) {
		return r.inner.Fetch(ctx, fetchParam)
	}

	result, err := retry.Retry(r.retryParam, fetchTask)
	if err != nil {
		r.recordRetryError("RetryingFetcher.Fetch", fetchParam.target.String(), err)
		return FetchResult{}, err
	}

	return result, nil
}

func (r *RetryingFetcher) recordRetryError(callerMethod string, fetchUrl string, err failure.ClassifiedError) {
	var retryError *retry.RetryError
	if !errors.As(err, &retryError) {
		// Inner fetcher failed with a non-retryable error; it has already
		// recorded the failure itself.
		return
	}

	r.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		metadata.CauseRetryFailure,
		retryError.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl),
		},
	)
}
