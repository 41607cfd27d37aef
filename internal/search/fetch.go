package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Downloader fetches image bytes from remote URLs on behalf of the add, search
// and compare routes, with a hard cap on response size.
type Downloader struct {
	client   *http.Client
	maxBytes int64
}

// NewDownloader returns a Downloader with the given request timeout and
// response size cap.
func NewDownloader(timeout time.Duration, maxBytes int64) *Downloader {
	return &Downloader{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch downloads the content at the given URL.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", url, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %q: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", url, err)
	}
	if int64(len(body)) > d.maxBytes {
		return nil, fmt.Errorf("fetch %q: response larger than %d bytes", url, d.maxBytes)
	}
	return body, nil
}
