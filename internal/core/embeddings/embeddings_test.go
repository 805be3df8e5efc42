package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
)

var errProvider = errors.New("provider down")

type fakeProvider struct {
	vectors [][]float32
	err     error
	calls   int
}

func (f *fakeProvider) Name() ProviderName { return "fake" }

func (f *fakeProvider) Dimensions() int { return 3 }

func (f *fakeProvider) GetEmbeddings(_ context.Context, _ []string) (EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return EmbeddingResult{}, f.err
	}

	return EmbeddingResult{Vectors: f.vectors, Dimensions: 3}, nil
}

func TestPadToTargetDimensions(t *testing.T) {
	require.Equal(t, []float32{1, 2, 0, 0}, PadToTargetDimensions([]float32{1, 2}, 4))
	require.Equal(t, []float32{1, 2}, PadToTargetDimensions([]float32{1, 2, 3}, 2))
	require.Equal(t, []float32{1, 2}, PadToTargetDimensions([]float32{1, 2}, 2))
}

func TestService_PadsVectors(t *testing.T) {
	logger := zerolog.Nop()
	provider := &fakeProvider{vectors: [][]float32{{1, 2, 3}, {4, 5, 6}}}
	s := NewService(provider, CircuitBreakerConfig{}, 5, &logger)

	got, err := s.GetEmbeddings(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 2, 3, 0, 0}, {4, 5, 6, 0, 0}}, got)
}

func TestService_EmptyInputSkipsProvider(t *testing.T) {
	logger := zerolog.Nop()
	provider := &fakeProvider{}
	s := NewService(provider, CircuitBreakerConfig{}, 0, &logger)

	got, err := s.GetEmbeddings(context.Background(), nil)

	require.NoError(t, err)
	require.Nil(t, got)
	require.Zero(t, provider.calls)
}

func TestService_CircuitOpensAfterFailures(t *testing.T) {
	logger := zerolog.Nop()
	provider := &fakeProvider{err: errProvider}
	s := NewService(provider, CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Hour}, 0, &logger)

	for range 2 {
		_, err := s.GetEmbeddings(context.Background(), []string{"x"})
		require.ErrorIs(t, err, errProvider)
	}

	_, err := s.GetEmbeddings(context.Background(), []string{"x"})
	require.ErrorIs(t, err, ErrCircuitBreakerOpen)
	require.Equal(t, 2, provider.calls)
}

func TestCircuitBreaker_Recovers(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Minute}, nil)
	cb.now = func() time.Time { return now }

	cb.RecordFailure(ProviderOpenAI)
	require.ErrorIs(t, cb.CheckCircuit(), ErrCircuitBreakerOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.CheckCircuit())
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func TestOpenAIProvider_GetEmbeddings(t *testing.T) {
	var got embeddingRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0.3,0.4]},
			{"object":"embedding","index":0,"embedding":[0.1,0.2]}
		]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: server.URL + "/v1", RateLimit: 100})

	res, err := p.GetEmbeddings(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, got.Input)
	require.Equal(t, ModelTextEmbedding3Small, got.Model)
	require.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, res.Vectors)
	require.Equal(t, 2, res.Dimensions)
}

func TestOpenAIProvider_MissingVectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: server.URL + "/v1", RateLimit: 100})

	_, err := p.GetEmbeddings(context.Background(), []string{"first"})

	require.ErrorIs(t, err, apperrors.ErrEmptyEmbedding)
}
