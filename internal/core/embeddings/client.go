// Package embeddings generates vectors for stored message contents.
//
// A single OpenAI provider sits behind a circuit breaker; vectors are padded
// or truncated to the column width of unique_messages.embedding.
package embeddings

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Client defines the interface for embedding operations.
type Client interface {
	// GetEmbeddings returns one vector per text, in input order.
	GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

var _ Client = (*Service)(nil)

// Config holds configuration for creating an embedding client.
type Config struct {
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIDimensions int
	OpenAIRateLimit  int

	CircuitBreakerConfig CircuitBreakerConfig

	// Target dimensions for output vectors
	TargetDimensions int
}

// Service is the embedding client used by the batch writer.
type Service struct {
	provider        Provider
	breaker         *CircuitBreaker
	targetDimension int
	logger          *zerolog.Logger
}

// NewClient creates the OpenAI backed client.
func NewClient(cfg Config, logger *zerolog.Logger) *Service {
	provider := NewOpenAIProvider(OpenAIConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		Dimensions: cfg.OpenAIDimensions,
		RateLimit:  cfg.OpenAIRateLimit,
	})

	return NewService(provider, cfg.CircuitBreakerConfig, cfg.TargetDimensions, logger)
}

// NewService wraps any provider.
func NewService(provider Provider, cb CircuitBreakerConfig, targetDimension int, logger *zerolog.Logger) *Service {
	if targetDimension == 0 {
		targetDimension = DefaultDimensions
	}

	if cb.Threshold == 0 {
		cb = DefaultCircuitBreakerConfig()
	}

	return &Service{
		provider:        provider,
		breaker:         NewCircuitBreaker(cb, logger),
		targetDimension: targetDimension,
		logger:          logger,
	}
}

// GetEmbeddings embeds texts and normalizes every vector to the target dimension.
func (s *Service) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := s.breaker.CheckCircuit(); err != nil {
		return nil, err
	}

	res, err := s.provider.GetEmbeddings(ctx, texts)
	if err != nil {
		s.breaker.RecordFailure(s.provider.Name())

		return nil, fmt.Errorf("%s: %w", s.provider.Name(), err)
	}

	s.breaker.RecordSuccess()

	out := make([][]float32, len(res.Vectors))
	for i, v := range res.Vectors {
		out[i] = PadToTargetDimensions(v, s.targetDimension)
	}

	return out, nil
}
