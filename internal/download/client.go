package download

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"curadiff/internal/fileutil"
	"curadiff/internal/logging"
)

const (
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 30 * time.Second
	metaMarker            = ".meta"
)

// ErrInvalidURL marks a list entry that cannot be turned into a file name.
var ErrInvalidURL = errors.New("invalid url")

// Client downloads URL lists under one Session.
type Client struct {
	session    Session
	httpClient *http.Client
	logger     *slog.Logger

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRetry overrides the attempt count and backoff delays.
func WithRetry(attempts int, baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a client whose HTTP cookie jar keeps any cookies the
// server sets during redirects.
func NewClient(session Session, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	client := &Client{
		session:          session,
		httpClient:       &http.Client{Timeout: defaultHTTPTimeout, Jar: jar},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "download")
	return client, nil
}

// File is one downloaded resource.
type File struct {
	URL    string
	Path   string
	Bytes  int64
	SHA256 string
}

// Failure is one URL that could not be fetched.
type Failure struct {
	URL string
	Err error
}

// Report summarizes a Fetch call.
type Report struct {
	Files    []File
	Failures []Failure
}

// Err joins every failure into one error, or returns nil.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.URL, f.Err))
	}
	return errors.Join(errs...)
}

// Fetch downloads every URL listed in listPath into destDir. A URL that fails
// is recorded in the report and the remaining URLs are still attempted. The
// returned error covers the list itself and context cancellation.
func (c *Client) Fetch(ctx context.Context, listPath, destDir string) (Report, error) {
	urls, err := ReadURLList(listPath)
	if err != nil {
		return Report{}, err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("create destination: %w", err)
	}

	var report Report
	for _, raw := range urls {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name, err := TargetName(raw)
		if err != nil {
			report.Failures = append(report.Failures, Failure{URL: raw, Err: err})
			continue
		}
		file, err := c.fetchWithRetry(ctx, raw, filepath.Join(destDir, name))
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logging.WarnWithContext(c.logger, "download failed", "download_failed",
				logging.String("url", raw),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the session credentials and the URL"),
				logging.String(logging.FieldImpact, "dataset will be missing from the batch"),
			)
			report.Failures = append(report.Failures, Failure{URL: raw, Err: err})
			continue
		}
		c.logger.Info("downloaded",
			logging.String(logging.FieldEventType, "download_complete"),
			logging.String("file", name),
			logging.Int("bytes", int(file.Bytes)),
		)
		report.Files = append(report.Files, file)
	}
	return report, nil
}

// ReadURLList returns the non-blank lines of a URL list with surrounding
// whitespace removed.
func ReadURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return urls, nil
}

// TargetName derives the local file name for a URL: its final path segment,
// with ".<curator>" appended when that segment contains ".meta". The curator is
// the segment before the final one.
func TargetName(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	name := segments[len(segments)-1]
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q has no file segment", ErrInvalidURL, raw)
	}
	if strings.Index(name, metaMarker) > 0 {
		if len(segments) < 2 || segments[len(segments)-2] == "" {
			return "", fmt.Errorf("%w: %q has no curator segment", ErrInvalidURL, raw)
		}
		name += "." + segments[len(segments)-2]
	}
	return name, nil
}

type httpStatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (c *Client) fetchWithRetry(ctx context.Context, raw, dest string) (File, error) {
	attempts := max(c.retryMaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		file, err := c.fetchOnce(ctx, raw, dest)
		if err == nil {
			return file, nil
		}
		lastErr = err
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			break
		}
		c.logger.Debug("retrying download", logging.String("url", raw), logging.Int("attempt", attempt), logging.Duration("delay", delay))
		if err := sleep(ctx, delay); err != nil {
			return File{}, err
		}
	}
	return File{}, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, raw, dest string) (File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	c.session.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return File{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return File{}, &httpStatusError{StatusCode: resp.StatusCode, RetryAfter: retryAfter}
	}

	n, digest, err := fileutil.CopyVerified(dest, resp.Body, resp.ContentLength)
	if err != nil {
		return File{}, fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	return File{URL: raw, Path: dest, Bytes: n, SHA256: digest}, nil
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return min(statusErr.RetryAfter, c.retryMaxDelay), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles the base delay per attempt: base, base*2, base*4, ...
func (c *Client) backoffDelay(attempt int) time.Duration {
	if c.retryBaseDelay <= 0 {
		return 0
	}
	delay := c.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > c.retryMaxDelay/2 {
			return c.retryMaxDelay
		}
		delay *= 2
	}
	return min(delay, c.retryMaxDelay)
}

func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}
