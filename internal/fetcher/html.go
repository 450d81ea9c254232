package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/internal/novel"
	"github.com/novelpack/novelpack/pkg/failure"
)

/*
Responsibilities

- Perform HTTP requests
- Apply headers and the per-request timeout
- Classify responses

Fetch Semantics

- Exactly one attempt per call
- A request exceeding the timeout fails with ErrCauseTimeout
- Non-2xx responses fail with ErrCauseHTTPStatus
- All other request failures are transport failures
- All fetches are logged with metadata

The fetcher never parses content; it only returns bytes and metadata.
*/

type HtmlFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	timeout      time.Duration
}

func NewHtmlFetcher(
	metadataSink metadata.MetadataSink,
	timeout time.Duration,
) HtmlFetcher {
	return HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   &http.Client{},
		timeout:      timeout,
	}
}

// NewHtmlFetcherWithClient is intended for tests that need to stub
// transport behavior.
func NewHtmlFetcherWithClient(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
	timeout time.Duration,
) HtmlFetcher {
	return HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		timeout:      timeout,
	}
}

func (h *HtmlFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HtmlFetcher.Fetch"
	startTime := time.Now()

	result, err := h.performFetch(ctx, fetchParam.target, fetchParam.userAgent)

	duration := time.Since(startTime)

	var statusCode int
	if err == nil {
		statusCode = result.Code()
	} else {
		var fetchError *FetchError
		if errors.As(err, &fetchError) {
			statusCode = fetchError.StatusCode
		}
	}

	h.metadataSink.RecordFetch(
		fetchParam.target.String(),
		statusCode,
		duration,
		0,
	)

	if err != nil {
		h.recordFetchError(callerMethod, fetchParam.target, err)
		return FetchResult{}, err
	}

	return result, nil
}

func (h *HtmlFetcher) recordFetchError(callerMethod string, target novel.FetchTarget, err failure.ClassifiedError) {
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(fetchError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, target.String()),
			},
		)
	}
}

func (h *HtmlFetcher) performFetch(ctx context.Context, target novel.FetchTarget, userAgent string) (FetchResult, failure.ClassifiedError) {
	reqCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseTransport,
		}
	}

	// Apply browser-like headers
	headers := requestHeaders(userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		if isTimeoutError(reqCtx, err) {
			return FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("request timed out after %s: %v", h.timeout, err),
				Retryable: true,
				Cause:     ErrCauseTimeout,
			}
		}
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseTransport,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("unexpected status: %d", resp.StatusCode),
			Retryable:  isStatusRetryable(resp.StatusCode),
			Cause:      ErrCauseHTTPStatus,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeoutError(reqCtx, err) {
			return FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("body read timed out after %s: %v", h.timeout, err),
				Retryable: true,
				Cause:     ErrCauseTimeout,
			}
		}
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseTransport,
		}
	}

	responseHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			responseHeaders[key] = values[0]
		}
	}

	result := FetchResult{
		target: target,
		body:   body,
		meta: ResponseMeta{
			statusCode:      resp.StatusCode,
			responseHeaders: responseHeaders,
		},
	}

	return result, nil
}

// isTimeoutError distinguishes deadline expiry from other transport
// failures. The request context carries only our per-request timeout, so
// its expiry always means the timeout fired.
func isTimeoutError(reqCtx context.Context, err error) bool {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
		"Connection":      "keep-alive",
	}
}
