// Package links fetches public web pages for the connector, such as the
// embeddable post previews media URLs are resolved from.
package links

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
)

const (
	defaultFetchTimeout = 15 * time.Second
	globalLimiterBurst  = 5
	maxRedirects        = 5
	maxBodySizeBytes    = 2 * 1024 * 1024
	hostLimiterRate     = 1
	hostLimiterBurst    = 2
	userAgent           = "FeedConnector/1.0 (+preview fetch)"
)

// WebFetcher performs anonymous, rate-limited GET requests.
type WebFetcher struct {
	client       *http.Client
	limiter      *rate.Limiter
	hostLimiters map[string]*rate.Limiter
	hostRate     rate.Limit
	mu           sync.RWMutex
}

// NewWebFetcher creates a fetcher allowing rps requests per second overall.
// Each host is additionally held to hostLimiterRate, unless rps is lower.
func NewWebFetcher(rps float64, timeout time.Duration) *WebFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	hostRate := rate.Limit(hostLimiterRate)
	if rps > 0 && rate.Limit(rps) > hostRate {
		hostRate = rate.Limit(rps)
	}

	return &WebFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return apperrors.ErrTooManyRedirects
				}

				return nil
			},
		},
		limiter:      rate.NewLimiter(rate.Limit(rps), globalLimiterBurst),
		hostLimiters: make(map[string]*rate.Limiter),
		hostRate:     hostRate,
	}
}

// Fetch returns the body of rawURL, capped at maxBodySizeBytes.
func (f *WebFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("global rate limiter wait: %w", err)
	}

	if err := f.hostLimiter(hostOf(rawURL)).Wait(ctx); err != nil {
		return nil, fmt.Errorf("host rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrHTTPStatusNotOK, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

func (f *WebFetcher) hostLimiter(host string) *rate.Limiter {
	f.mu.RLock()
	limiter, exists := f.hostLimiters[host]
	f.mu.RUnlock()

	if exists {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if limiter, exists := f.hostLimiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(f.hostRate, hostLimiterBurst)
	f.hostLimiters[host] = limiter

	return limiter
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Host)
}
