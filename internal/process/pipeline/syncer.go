// Package pipeline runs one sync pass: fetch new channel history, normalize and
// validate each message, glue threads, and write the batch.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
	"github.com/lueurxax/telegram-feed-connector/internal/ingest/reader"
	"github.com/lueurxax/telegram-feed-connector/internal/platform/observability"
	"github.com/lueurxax/telegram-feed-connector/internal/process/dedup"
	"github.com/lueurxax/telegram-feed-connector/internal/process/writer"
)

// Authorizer reports whether the platform session is logged in.
type Authorizer interface {
	IsAuthorized(ctx context.Context) (bool, error)
}

// Fetcher collects the new messages of every channel.
type Fetcher interface {
	Fetch(ctx context.Context) ([]reader.ChannelBatch, reader.ChannelStats, error)
}

// Normalizer maps one raw message to the common record.
type Normalizer interface {
	Normalize(ctx context.Context, ch domain.Channel, raw domain.RawMessage) domain.Result[domain.NormalizedMessage]
}

// Validator rejects records that break the message contract.
type Validator interface {
	Validate(msg domain.NormalizedMessage) domain.Result[domain.NormalizedMessage]
}

// Writer persists a glued batch.
type Writer interface {
	Write(ctx context.Context, msgs []domain.NormalizedMessage) (writer.WriteReport, error)
}

// Report summarizes one sync pass.
type Report struct {
	RunID      string
	Channels   reader.ChannelStats
	Fetched    int
	Normalized int
	Skipped    map[domain.SkipReason]int
	Glued      int
	Written    int64
	FailedRows int
	Duration   time.Duration
}

// Syncer runs sync passes. Run is not safe for concurrent use; callers serialize passes.
type Syncer struct {
	auth      Authorizer
	fetcher   Fetcher
	normalize Normalizer
	validator Validator
	writer    Writer
	glue      dedup.Options
	logger    *zerolog.Logger
	now       func() time.Time
}

// New creates a syncer.
func New(auth Authorizer, fetcher Fetcher, normalize Normalizer, validator Validator, w Writer, glue dedup.Options, logger *zerolog.Logger) *Syncer {
	return &Syncer{
		auth:      auth,
		fetcher:   fetcher,
		normalize: normalize,
		validator: validator,
		writer:    w,
		glue:      glue,
		logger:    logger,
		now:       time.Now,
	}
}

// Run performs one pass. Per-message problems are counted in the report;
// only an unauthorized session, cancellation, or a failed batch write is an error.
func (s *Syncer) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.New().String(), Skipped: map[domain.SkipReason]int{}}
	logger := s.logger.With().Str(LogFieldRunID, report.RunID).Logger()
	start := s.now()

	err := s.run(ctx, &logger, &report)

	report.Duration = s.now().Sub(start)
	observability.SyncDurationSeconds.Observe(report.Duration.Seconds())

	if err != nil {
		observability.SyncRunsTotal.WithLabelValues(observability.RunStatusError).Inc()
		logger.Error().Err(err).Msg("sync pass failed")

		return report, err
	}

	observability.SyncRunsTotal.WithLabelValues(observability.RunStatusSuccess).Inc()
	observability.SyncLastSuccessTimestamp.Set(float64(s.now().Unix()))

	logger.Info().
		Int("channels", report.Channels.Fetched).
		Int("fetched", report.Fetched).
		Int("normalized", report.Normalized).
		Int("glued", report.Glued).
		Int64("written", report.Written).
		Int("failed_rows", report.FailedRows).
		Dur("duration", report.Duration).
		Msg("Sync pass finished")

	return report, nil
}

func (s *Syncer) run(ctx context.Context, logger *zerolog.Logger, report *Report) error {
	authorized, err := s.auth.IsAuthorized(ctx)
	if err != nil {
		return fmt.Errorf("check authorization: %w", err)
	}

	if !authorized {
		return apperrors.ErrNotAuthenticated
	}

	batches, stats, err := s.fetcher.Fetch(ctx)
	report.Channels = stats

	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	normalized := s.normalizeAll(ctx, logger, batches, report)

	glued, glueStats := dedup.GlueWithStats(normalized, s.glue)
	report.Glued = len(glued)
	report.Skipped[domain.SkipBelowMinLength] += glueStats.Dropped

	observability.DropsTotal.WithLabelValues(string(domain.SkipBelowMinLength)).Add(float64(glueStats.Dropped))
	observability.MessagesGlued.Add(float64(len(glued)))

	logger.Info().
		Int("found", len(normalized)).
		Int("compressed", len(glued)).
		Msgf("Found %d messages, compressed to %d", len(normalized), len(glued))

	if len(glued) == 0 {
		return nil
	}

	written, err := s.writer.Write(ctx, glued)
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}

	report.Written = written.Inserted
	report.FailedRows = len(written.Failed)

	return nil
}

// normalizeAll keeps channel order and, within a channel, oldest-first order.
func (s *Syncer) normalizeAll(ctx context.Context, logger *zerolog.Logger, batches []reader.ChannelBatch, report *Report) []domain.NormalizedMessage {
	var out []domain.NormalizedMessage

	for _, batch := range batches {
		for _, raw := range batch.Messages {
			report.Fetched++

			res := domain.Then(s.normalize.Normalize(ctx, batch.Channel, raw), s.validator.Validate)

			msg, ok := res.Get()
			if !ok {
				s.recordSkip(logger, batch.Channel, raw, res, report)
				continue
			}

			report.Normalized++

			out = append(out, msg)
		}
	}

	observability.MessagesNormalized.Add(float64(report.Normalized))

	return out
}

func (s *Syncer) recordSkip(logger *zerolog.Logger, ch domain.Channel, raw domain.RawMessage, res domain.Result[domain.NormalizedMessage], report *Report) {
	reason := res.Reason()
	report.Skipped[reason]++

	observability.DropsTotal.WithLabelValues(string(reason)).Inc()

	logger.Debug().
		Str(LogFieldChannelID, ch.Key()).
		Int64(LogFieldMsgID, raw.ID).
		Str(LogFieldReason, string(reason)).
		Str("detail", res.Detail()).
		Msg("message skipped")
}
