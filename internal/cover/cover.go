package cover

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/novelpack/novelpack/internal/metadata"
	"github.com/novelpack/novelpack/pkg/fileutil"
	"github.com/novelpack/novelpack/pkg/hashutil"
)

/*
Responsibilities
- Fetch the cover image referenced by the landing page
- Persist it next to the run's other artifacts
- Verify the written bytes before handing the path onward

Cover download is always non-fatal: any failure yields an empty path
and the book is simply packaged without a cover.
*/

type Downloader struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	timeout      time.Duration
}

func NewDownloader(metadataSink metadata.MetadataSink, timeout time.Duration) Downloader {
	return Downloader{
		metadataSink: metadataSink,
		httpClient:   &http.Client{},
		timeout:      timeout,
	}
}

// Download fetches coverURL into destDir and returns the local path, or
// "" when the cover could not be obtained.
func (d *Downloader) Download(ctx context.Context, coverURL, destDir string) string {
	if coverURL == "" {
		return ""
	}

	data, ok := d.fetch(ctx, coverURL)
	if !ok {
		return ""
	}

	// The cover may land before any artifact write, so destDir can be
	// missing here; WriteFile creates it.
	localPath := filepath.Join(destDir, "cover"+coverExtension(coverURL))
	if err := fileutil.WriteFile(localPath, data); err != nil {
		d.recordFailure(coverURL, "cover write failed: "+err.Error())
		return ""
	}

	if !d.verifyWritten(localPath, data) {
		d.recordFailure(coverURL, "cover verification failed")
		return ""
	}

	d.metadataSink.RecordArtifact(
		metadata.ArtifactCover,
		localPath,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, coverURL),
		},
	)
	return localPath
}

func (d *Downloader) fetch(ctx context.Context, coverURL string) ([]byte, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, coverURL, nil)
	if err != nil {
		d.recordFailure(coverURL, "cover request invalid: "+err.Error())
		return nil, false
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.recordFailure(coverURL, "cover fetch failed: "+err.Error())
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.recordFailure(coverURL, "cover fetch returned "+resp.Status)
		return nil, false
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		d.recordFailure(coverURL, "cover read failed: "+err.Error())
		return nil, false
	}
	if len(data) == 0 {
		d.recordFailure(coverURL, "cover response was empty")
		return nil, false
	}

	return data, true
}

// verifyWritten re-reads the file and compares content hashes, so a
// torn or truncated write never reaches the packaging stage.
func (d *Downloader) verifyWritten(localPath string, expected []byte) bool {
	expectedHash, err := hashutil.HashBytes(expected, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return false
	}
	writtenHash, err := hashutil.HashFile(localPath, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return false
	}
	return expectedHash == writtenHash
}

func (d *Downloader) recordFailure(coverURL, details string) {
	d.metadataSink.RecordError(
		time.Now(),
		"cover",
		"Downloader.Download",
		metadata.CauseNetworkFailure,
		details,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, coverURL),
		},
	)
}

func coverExtension(coverURL string) string {
	ext := strings.ToLower(filepath.Ext(coverURL))
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".jpg"
	}
}
