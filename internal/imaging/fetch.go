package imaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Distinct intake failure classes. Cross-origin denial is surfaced on its
// own because retrying cannot fix it; the user has to pick another source.
var (
	ErrFetchFailed  = errors.New("image fetch failed")
	ErrNotAnImage   = errors.New("url does not point to an image")
	ErrOriginDenied = errors.New("image host denied access")
)

const (
	fetchTimeout    = 30 * time.Second
	maxFetchedBytes = 20 << 20
)

// Fetcher converts remote URLs into normalized uploadable files.
type Fetcher struct {
	client *http.Client
}

// NewFetcher builds a Fetcher. A nil client gets one with a bounded timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Fetcher{client: client}
}

// FetchAsFile downloads the resource at rawURL, validates it is an image,
// and returns it as a File named after the URL path.
func (f *Fetcher) FetchAsFile(ctx context.Context, rawURL string) (*File, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", ErrFetchFailed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: status %d from %s", ErrOriginDenied, resp.StatusCode, parsed.Host)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: status %d from %s", ErrFetchFailed, resp.StatusCode, parsed.Host)
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, fmt.Errorf("%w: got content type %q", ErrNotAnImage, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrFetchFailed)
	}

	return &File{
		Name: filenameFromURL(parsed.Path, "product-image"+extensionForMIME(contentType)),
		MIME: contentType,
		Data: data,
	}, nil
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".img"
	}
}
