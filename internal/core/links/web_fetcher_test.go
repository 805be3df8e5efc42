package links

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
)

const (
	headerUserAgent = "User-Agent"
	headerAccept    = "Accept"
	testHTMLBody    = "<html><body>Test content</body></html>"
)

func TestNewWebFetcher(t *testing.T) {
	tests := []struct {
		name    string
		rps     float64
		timeout time.Duration
		want    time.Duration
	}{
		{name: "default timeout", rps: 2, timeout: 0, want: defaultFetchTimeout},
		{name: "custom timeout", rps: 5, timeout: 10 * time.Second, want: 10 * time.Second},
		{name: "negative timeout uses default", rps: 1, timeout: -time.Second, want: defaultFetchTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := NewWebFetcher(tt.rps, tt.timeout)

			require.NotNil(t, fetcher.client)
			require.NotNil(t, fetcher.limiter)
			require.NotNil(t, fetcher.hostLimiters)
			require.Equal(t, tt.want, fetcher.client.Timeout)
		})
	}
}

func TestHostOf(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{rawURL: "https://t.me/durov/1?embed=1", want: "t.me"},
		{rawURL: "https://T.ME/page", want: "t.me"},
		{rawURL: "https://example.com:8080/page", want: "example.com:8080"},
		{rawURL: "://bad", want: ""},
		{rawURL: "", want: ""},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, hostOf(tt.rawURL), tt.rawURL)
	}
}

func TestWebFetcherHostLimiterReused(t *testing.T) {
	fetcher := NewWebFetcher(1, time.Second)

	first := fetcher.hostLimiter("t.me")
	require.Same(t, first, fetcher.hostLimiter("t.me"))
	require.NotSame(t, first, fetcher.hostLimiter("other.com"))
}

func TestWebFetcherFetch(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(headerUserAgent) == "" || r.Header.Get(headerAccept) == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			_, _ = w.Write([]byte(testHTMLBody))
		}))
		defer server.Close()

		body, err := NewWebFetcher(10, 5*time.Second).Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		require.Equal(t, testHTMLBody, string(body))
	})

	t.Run("non-200 status code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewWebFetcher(10, 5*time.Second).Fetch(context.Background(), server.URL)
		require.ErrorIs(t, err, apperrors.ErrHTTPStatusNotOK)
	})

	t.Run("canceled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewWebFetcher(10, 5*time.Second).Fetch(ctx, server.URL)
		require.Error(t, err)
	})

	t.Run("too many redirects", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/again", http.StatusFound)
		}))
		defer server.Close()

		_, err := NewWebFetcher(10, 5*time.Second).Fetch(context.Background(), server.URL)
		require.ErrorIs(t, err, apperrors.ErrTooManyRedirects)
	})
}
