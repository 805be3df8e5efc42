package embeddings

import (
	"context"
	"time"
)

// ProviderName identifies an embedding provider.
type ProviderName string

// ProviderOpenAI is the only provider the connector ships with.
const ProviderOpenAI ProviderName = "openai"

// DefaultDimensions matches unique_messages.embedding.
const DefaultDimensions = 1536

const (
	defaultCircuitThreshold = 5
	errRateLimiterFmt       = "rate limiter: %w"
)

// EmbeddingResult contains the embedding vectors of one request, in input order.
type EmbeddingResult struct {
	Vectors    [][]float32
	Dimensions int
	Provider   ProviderName
}

// Provider generates embeddings for a batch of texts.
type Provider interface {
	Name() ProviderName
	GetEmbeddings(ctx context.Context, texts []string) (EmbeddingResult, error)
	Dimensions() int
}

// CircuitBreakerConfig defines circuit breaker settings.
type CircuitBreakerConfig struct {
	Threshold  int           // Number of failures before opening circuit
	ResetAfter time.Duration // Time before attempting recovery
}

// DefaultCircuitBreakerConfig returns sensible defaults for circuit breaker.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  defaultCircuitThreshold,
		ResetAfter: time.Minute,
	}
}
