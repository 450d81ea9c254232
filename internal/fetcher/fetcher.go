package fetcher

import (
	"context"

	"github.com/novelpack/novelpack/pkg/failure"
)

/*
	Responsibilities
	 - Perform a single HTTP GET of a fetch target
	 - Classify transport, timeout, and HTTP status failures
	 - Record fetch observations through the metadata sink

	Non-responsibilities
	 - Retrying (see RetryingFetcher)
	 - Parsing or interpreting the response body
	 - Rate limiting or pacing between requests
*/

// Fetcher performs exactly one fetch attempt per call.
// Implementations must honor ctx cancellation and must not retry internally.
type Fetcher interface {
	Fetch(ctx context.Context, fetchParam FetchParam) (FetchResult, failure.ClassifiedError)
}
