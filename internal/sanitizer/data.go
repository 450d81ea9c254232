package sanitizer

// SanitizeParam holds configuration for the sanitization pass.
// This allows external configuration without hardcoding magic values.
type SanitizeParam struct {
	// RemoveSelectors are matched against the chapter markup; every
	// matching node is removed with its subtree.
	RemoveSelectors []string
}

// DefaultSanitizeParam removes scripting, embedded frames, and the ad
// containers commonly injected into chapter bodies.
func DefaultSanitizeParam() SanitizeParam {
	return SanitizeParam{
		RemoveSelectors: []string{
			"script",
			"style",
			"iframe",
			"ins",
			"noscript",
			".ads",
			".google-auto-placed",
			"center",
		},
	}
}

// SanitizedChapter is the cleaned chapter markup.
type SanitizedChapter struct {
	contentHTML string
}

func (s *SanitizedChapter) ContentHTML() string {
	return s.contentHTML
}

// NewSanitizedChapter wraps already-clean markup. The field remains
// private to maintain immutability.
func NewSanitizedChapter(contentHTML string) SanitizedChapter {
	return SanitizedChapter{
		contentHTML: contentHTML,
	}
}
