package extractor

// Profile holds the site-specific selector table. Variant sites differ
// only by the profile value; extraction logic stays shared.
type Profile struct {
	// Landing page
	TitleSelector       string
	DescriptionSelector string
	AuthorSelector      string
	GenreSelector       string
	StatusSelector      string
	SourceSelector      string
	CoverSelector       string

	// Chapter list page
	ChapterLinkSelector string
	NextPageSelector    string

	// Chapter page
	ChapterTitleSelector   string
	ChapterContentSelector string
}

// DefaultProfile targets the common novel-reader page layout: an
// info block of labeled anchors on the landing page, a paginated
// chapter list, and a single chapter content container.
func DefaultProfile() Profile {
	return Profile{
		TitleSelector:       "h3.title",
		DescriptionSelector: "div.desc-text",
		AuthorSelector:      "div.info a[href*=\"author\"]",
		GenreSelector:       "div.info a[href*=\"genre\"]",
		StatusSelector:      "div.info a[href*=\"status\"]",
		SourceSelector:      "div.info h3:contains(\"Source\") + a",
		CoverSelector:       "div.book img",

		ChapterLinkSelector: "ul.list-chapter li a",
		NextPageSelector:    "ul.pagination li.next a",

		ChapterTitleSelector:   "a.chapter-title",
		ChapterContentSelector: "div#chapter-content",
	}
}
