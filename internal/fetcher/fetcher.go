// Package fetcher downloads the upstream domain-list-community archive.
package fetcher

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/cache"
)

const userAgent = "SurgeRulesAutoBuild/1.0"

// Fetcher downloads the archive ZIP, using ETag checks to skip downloads
// when the cached copy is still current.
type Fetcher struct {
	client *http.Client
	url    string
	cache  *cache.ArchiveCache
}

func New(url string, archiveCache *cache.ArchiveCache) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		url:   url,
		cache: archiveCache,
	}
}

// ETag fetches the upstream ETag without downloading the archive.
func (f *Fetcher) ETag(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, f.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HEAD request failed: %s", resp.Status)
	}

	etag := resp.Header.Get("ETag")
	etag = strings.ReplaceAll(etag, "\"", "")
	etag = strings.TrimPrefix(etag, "W/")
	return etag, nil
}

// Archive returns a zip.Reader for the upstream archive, downloading only
// when the cached copy is absent or stale. A failed ETag check falls back to
// the cached copy when one exists.
func (f *Fetcher) Archive(ctx context.Context) (*zip.Reader, string, error) {
	reader, etag, ok := f.cache.Get()

	newETag, err := f.ETag(ctx)
	if err != nil {
		if ok {
			return reader, etag, nil
		}
		return nil, "", fmt.Errorf("get upstream etag: %w", err)
	}

	if ok && etag == newETag {
		return reader, etag, nil
	}

	data, err := f.download(ctx)
	if err != nil {
		if ok {
			return reader, etag, nil
		}
		return nil, "", err
	}
	if err := f.cache.Set(data, newETag); err != nil {
		return nil, "", fmt.Errorf("cache archive: %w", err)
	}

	reader, etag, _ = f.cache.Get()
	return reader, etag, nil
}

func (f *Fetcher) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read archive body: %w", err)
	}
	return data, nil
}
