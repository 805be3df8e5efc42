// Package worker runs periodic background passes on a ticker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	logFieldWorker = "worker"

	errFmtLoop = "worker loop %s: %w"
)

// ProcessFunc runs one pass of work.
type ProcessFunc func(ctx context.Context) error

// Config configures a periodic loop.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// Interval is the time between passes. It must be positive.
	Interval time.Duration

	// Timeout bounds a single pass (0 to disable).
	Timeout time.Duration

	// RunOnStart runs a pass immediately when starting.
	RunOnStart bool

	// Process is called on every tick.
	Process ProcessFunc

	// Skippable errors are logged at debug level instead of error.
	Skippable []error

	// Logger for the worker.
	Logger *zerolog.Logger
}

// Loop runs cfg.Process every cfg.Interval until ctx is canceled.
// Pass errors and panics are logged and never stop the loop.
// Returns a wrapped context error when the context is canceled.
func Loop(ctx context.Context, cfg Config) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf(errFmtLoop, cfg.Name, errNonPositiveInterval)
	}

	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Dur("interval", cfg.Interval).Msg("starting worker loop")

	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker loop stopped")

	if cfg.RunOnStart {
		runPass(ctx, cfg, logger)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf(errFmtLoop, cfg.Name, ctx.Err())
		case <-ticker.C:
			runPass(ctx, cfg, logger)
		}
	}
}

var errNonPositiveInterval = errors.New("interval must be positive")

func runPass(ctx context.Context, cfg Config, logger *zerolog.Logger) {
	if cfg.Process == nil {
		return
	}

	defer RecoverPanic(logger, cfg.Name)

	var err error

	if cfg.Timeout > 0 {
		err = RunWithTimeout(ctx, cfg.Timeout, cfg.Process)
	} else {
		err = cfg.Process(ctx)
	}

	if err == nil || ctx.Err() != nil {
		return
	}

	for _, skip := range cfg.Skippable {
		if errors.Is(err, skip) {
			logger.Debug().Err(err).Str(logFieldWorker, cfg.Name).Msg("pass skipped")
			return
		}
	}

	logger.Error().Err(err).Str(logFieldWorker, cfg.Name).Msg("process error")
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}

func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()

		return &nop
	}

	return logger
}
