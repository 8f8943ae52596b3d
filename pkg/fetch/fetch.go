// Package fetch retrieves lexicon listing pages over HTTP.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/japaniel/jambu/pkg/page"
)

const (
	// DefaultUserAgent identifies the client to the lexicon server.
	DefaultUserAgent = "jambu/0.1 (+https://github.com/japaniel/jambu)"
	// DefaultTimeout bounds a single page request.
	DefaultTimeout = 30 * time.Second
	// MaxBodySize is the largest page accepted (10 MB).
	MaxBodySize = 10 * 1024 * 1024
)

var (
	// ErrStatus is matched by every *StatusError.
	ErrStatus = errors.New("unexpected status")
	// ErrTooLarge is returned when a page exceeds the body size limit.
	ErrTooLarge = errors.New("page exceeds size limit")
)

// StatusError reports a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// Fetcher downloads and parses listing pages. Concurrent requests for the
// same URL share one round trip.
type Fetcher struct {
	Client      *http.Client
	UserAgent   string
	MaxBodySize int64
	// Logger receives request diagnostics. nil means no logging.
	Logger *zap.Logger

	group singleflight.Group
}

// New creates a Fetcher with the given timeout and user agent. Zero values
// select the defaults.
func New(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		Client:      &http.Client{Timeout: timeout},
		UserAgent:   userAgent,
		MaxBodySize: MaxBodySize,
	}
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

// Fetch GETs u and parses the response into a fresh Document. Each caller
// receives its own Document even when the request was shared.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) (*page.Document, error) {
	key := u.String()
	v, err, shared := f.group.Do(key, func() (interface{}, error) {
		return f.get(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	body := v.([]byte)
	f.logger().Debug("fetched page", zap.String("url", key), zap.Int("bytes", len(body)), zap.Bool("shared", shared))

	doc, err := page.Parse(bytes.NewReader(body), u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if doc.Title == "" {
		doc.Title = readableTitle(body, u)
	}
	return doc, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	limit := f.MaxBodySize
	if limit <= 0 {
		limit = MaxBodySize
	}
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("GET %s: content-length %d: %w", rawURL, resp.ContentLength, ErrTooLarge)
	}
	// Read one byte past the limit to tell an exact fit from truncation.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("GET %s: %w", rawURL, ErrTooLarge)
	}
	return body, nil
}

// readableTitle falls back to readability's title heuristics for pages
// without a <title> element.
func readableTitle(body []byte, u *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.Title)
}
