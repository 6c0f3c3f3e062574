// Package page fetches web pages and keeps one highlighted session per tab.
package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"
)

// ErrTooLarge is returned when a page exceeds the configured body size.
var ErrTooLarge = errors.New("page exceeds maximum size")

// DefaultUserAgent mimics desktop Chrome to avoid trivial bot blocking.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetched is a downloaded page decoded to UTF-8.
type Fetched struct {
	URL         *url.URL
	ContentType string
	Body        []byte
}

// Source downloads pages. *Fetcher implements it.
type Source interface {
	Fetch(ctx context.Context, rawURL string) (*Fetched, error)
}

// FetchOptions tunes a Fetcher. Zero values fall back to defaults.
type FetchOptions struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
	Client       *http.Client
}

// Fetcher downloads pages with browser-like headers.
type Fetcher struct {
	client    *http.Client
	maxBody   int64
	userAgent string
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 * 1024 * 1024 // 10 MB limit for HTML content
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{client: client, maxBody: opts.MaxBodyBytes, userAgent: opts.UserAgent}
}

// Fetch downloads rawURL. Only http and https URLs answering 200 are
// accepted; the body is converted to UTF-8 using the declared or sniffed
// charset.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setBrowserHeaders(req, f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", u, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBody {
		return nil, fmt.Errorf("content-length %d: %w", resp.ContentLength, ErrTooLarge)
	}

	// Read one byte past the limit to tell a full body from a truncated one.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > f.maxBody {
		return nil, fmt.Errorf("limit %d bytes: %w", f.maxBody, ErrTooLarge)
	}

	contentType := resp.Header.Get("Content-Type")
	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	return &Fetched{URL: resp.Request.URL, ContentType: contentType, Body: body}, nil
}

func setBrowserHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Sec-Ch-Ua", `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`)
	req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
	req.Header.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
