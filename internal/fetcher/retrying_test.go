package fetcher_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/novelpack/novelpack/internal/fetcher"
	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/pkg/failure"
	"github.com/novelpack/novelpack/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFetcher fails the first failuresBeforeSuccess calls, then succeeds.
type countingFetcher struct {
	calls                 int
	failuresBeforeSuccess int
	err                   failure.ClassifiedError
	result                fetcher.FetchResult
}

func (c *countingFetcher) Fetch(ctx context.Context, fetchParam fetcher.FetchParam) (fetcher.FetchResult, failure.ClassifiedError) {
	c.calls++
	if c.calls <= c.failuresBeforeSuccess {
		return fetcher.FetchResult{}, c.err
	}
	return c.result, nil
}

func testRetryParam(maxAttempts int) retry.RetryParam {
	return retry.NewRetryParam(time.Millisecond, maxAttempts)
}

func TestRetryingFetcher_SucceedsAfterRetries(t *testing.T) {
	target := mustTarget(t, "https://example.com/chapter-1")
	inner := &countingFetcher{
		failuresBeforeSuccess: 2,
		err: &fetcher.FetchError{
			Message:   "server error",
			Retryable: true,
			Cause:     fetcher.ErrCauseHTTPStatus,
		},
		result: fetcher.NewFetchResultForTest(target, []byte("<html></html>"), 200, nil),
	}

	sink := &mockMetadataSink{}
	retrying := fetcher.NewRetryingFetcher(inner, testRetryParam(4), sink)

	result, err := retrying.Fetch(context.Background(), fetcher.NewFetchParam(target, "test-agent"))

	require.Nil(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 200, result.Code())
	assert.Empty(t, sink.errorEvents)
}

func TestRetryingFetcher_ExhaustsAttempts(t *testing.T) {
	target := mustTarget(t, "https://example.com/chapter-1")
	inner := &countingFetcher{
		failuresBeforeSuccess: 100,
		err: &fetcher.FetchError{
			Message:   "request timed out",
			Retryable: true,
			Cause:     fetcher.ErrCauseTimeout,
		},
	}

	sink := &mockMetadataSink{}
	retrying := fetcher.NewRetryingFetcher(inner, testRetryParam(4), sink)

	_, err := retrying.Fetch(context.Background(), fetcher.NewFetchParam(target, "test-agent"))

	require.NotNil(t, err)
	assert.Equal(t, 4, inner.calls)

	var retryErr *retry.RetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, retry.ErrExhaustedAttempts, retryErr.Cause)

	// The last inner error stays reachable through the chain.
	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetcher.ErrCauseTimeout, fetchErr.Cause)

	require.Len(t, sink.errorEvents, 1)
	assert.Equal(t, metadata.ErrorCause(metadata.CauseRetryFailure), sink.errorEvents[0].cause)
}

func TestRetryingFetcher_NonRetryableShortCircuits(t *testing.T) {
	target := mustTarget(t, "https://example.com/chapter-1")
	inner := &countingFetcher{
		failuresBeforeSuccess: 100,
		err: &fetcher.FetchError{
			Message:    "not found",
			Retryable:  false,
			Cause:      fetcher.ErrCauseHTTPStatus,
			StatusCode: 404,
		},
	}

	sink := &mockMetadataSink{}
	retrying := fetcher.NewRetryingFetcher(inner, testRetryParam(4), sink)

	_, err := retrying.Fetch(context.Background(), fetcher.NewFetchParam(target, "test-agent"))

	require.NotNil(t, err)
	assert.Equal(t, 1, inner.calls)

	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 404, fetchErr.StatusCode)

	// Non-retryable failures are recorded at the fetch layer, not here.
	assert.Empty(t, sink.errorEvents)
}
