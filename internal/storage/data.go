package storage

// Persistence

type Format string

const (
	FormatEPUB     Format = "epub"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(raw string) (Format, bool) {
	switch Format(raw) {
	case FormatEPUB, FormatJSON, FormatMarkdown:
		return Format(raw), true
	default:
		return "", false
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatEPUB:
		return "epub"
	case FormatJSON:
		return "json"
	case FormatMarkdown:
		return "md"
	default:
		return ""
	}
}

type WriteResult struct {
	path        string
	contentHash string
}

func NewWriteResult(
	path string,
	contentHash string,
) WriteResult {
	return WriteResult{
		path:        path,
		contentHash: contentHash,
	}
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}

// SafeTitle maps a novel title to a filesystem-safe file stem: every
// character outside [A-Za-z0-9] becomes an underscore.
func SafeTitle(title string) string {
	var stem []byte
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			stem = append(stem, byte(r))
		default:
			stem = append(stem, '_')
		}
	}
	return string(stem)
}
