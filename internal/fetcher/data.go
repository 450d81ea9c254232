package fetcher

import (
	"github.com/novelpack/novelpack/internal/novel"
)

// HTTP boundary

type FetchParam struct {
	target    novel.FetchTarget
	userAgent string
}

func NewFetchParam(target novel.FetchTarget, userAgent string) FetchParam {
	return FetchParam{
		target:    target,
		userAgent: userAgent,
	}
}

func (p *FetchParam) Target() novel.FetchTarget {
	return p.target
}

type FetchResult struct {
	target novel.FetchTarget
	body   []byte
	meta   ResponseMeta
}

func (f *FetchResult) Target() novel.FetchTarget {
	return f.target
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) Headers() map[string]string {
	return f.meta.responseHeaders
}

type ResponseMeta struct {
	statusCode      int
	responseHeaders map[string]string
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	target novel.FetchTarget,
	body []byte,
	statusCode int,
	responseHeaders map[string]string,
) FetchResult {
	return FetchResult{
		target: target,
		body:   body,
		meta: ResponseMeta{
			statusCode:      statusCode,
			responseHeaders: responseHeaders,
		},
	}
}
