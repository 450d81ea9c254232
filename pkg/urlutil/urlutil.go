package urlutil

import (
	"fmt"
	"net/url"
)

// Canonicalize applies a deterministic normalization to a URL, mapping
// equivalent spellings of the same page to one canonical representation.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Path is cleaned (trailing slashes removed, except for root "/")
//   - Fragments are removed
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//
// Query parameters are kept: list pagination is query-borne
// (e.g. ?page=2), so two URLs differing only in query are distinct pages.
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
func Canonicalize(sourceUrl url.URL) url.URL {
	// Create a copy to avoid mutating the original
	canonical := sourceUrl

	// Lowercase scheme and host
	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	// Remove default port if present
	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	// Clean the path: remove trailing slashes (except root)
	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
	}

	// Remove fragment (anchor)
	canonical.Fragment = ""
	canonical.RawFragment = ""

	return canonical
}

// ResolveRef resolves an href attribute value against the page it was found
// on, producing an absolute URL. Relative, root-relative, and already
// absolute hrefs are all accepted; anything that does not resolve to an
// http(s) URL is rejected.
func ResolveRef(base url.URL, href string) (url.URL, error) {
	if href == "" {
		return url.URL{}, fmt.Errorf("empty href")
	}

	ref, err := url.Parse(href)
	if err != nil {
		return url.URL{}, fmt.Errorf("invalid href %q: %w", href, err)
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return url.URL{}, fmt.Errorf("href %q resolves to unsupported scheme %q", href, resolved.Scheme)
	}
	if resolved.Host == "" {
		return url.URL{}, fmt.Errorf("href %q resolves to no host", href)
	}

	return *resolved, nil
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
