package novel

import (
	"fmt"
	"net/url"
)

// Domain model for a single crawl run.
//
// Ordering contract:
//   - Chapter order is assigned at discovery time and never changes.
//   - The record at position i always corresponds to the stub at position i,
//     no matter in which order the fetches completed.

// PlaceholderContent is the sentinel substituted for a chapter body when
// every fetch attempt for that chapter has been exhausted. Writers pass it
// through verbatim.
const PlaceholderContent = "[chapter unavailable: all fetch attempts failed]"

// FetchTarget is an absolute locator for a fetchable resource.
// Immutable once created.
type FetchTarget struct {
	u url.URL
}

// NewFetchTarget parses raw into a FetchTarget. Only absolute http(s)
// URLs are accepted.
func NewFetchTarget(raw string) (FetchTarget, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return FetchTarget{}, fmt.Errorf("invalid fetch target %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return FetchTarget{}, fmt.Errorf("fetch target %q must be an absolute http(s) URL", raw)
	}
	if u.Host == "" {
		return FetchTarget{}, fmt.Errorf("fetch target %q has no host", raw)
	}
	return FetchTarget{u: *u}, nil
}

// TargetFromURL wraps an already-resolved absolute URL.
func TargetFromURL(u url.URL) FetchTarget {
	return FetchTarget{u: u}
}

func (t FetchTarget) URL() url.URL {
	return t.u
}

func (t FetchTarget) String() string {
	return t.u.String()
}

// IsZero reports whether the target was never set.
func (t FetchTarget) IsZero() bool {
	return t.u == url.URL{}
}

// ChapterStub is a lightweight reference to a chapter discovered on a list
// page, prior to content resolution. Title may be empty until the chapter
// page itself is fetched.
type ChapterStub struct {
	Title  string
	Target FetchTarget
}

// ChapterRecord is a stub plus its resolved content. Failed marks records
// whose Content holds PlaceholderContent. Position in the record sequence
// is significant.
type ChapterRecord struct {
	Title   string
	Content string
	Failed  bool
}

// Metadata describes the novel, populated once from the landing page.
// LocalCoverPath is filled later if the cover asset was downloaded and
// verified; it is deliberately separate from the remote CoverURL.
type Metadata struct {
	Title          string
	Description    string
	Author         string
	Status         string
	Source         string
	Genres         []string
	CoverURL       string
	LocalCoverPath string
}

// Book is the terminal artifact of a run: metadata plus the ordered
// chapter records, consumed by the output writers.
type Book struct {
	Metadata Metadata
	Chapters []ChapterRecord
}
