// Package reader pulls the messages each channel received since its watermark.
package reader

import (
	"context"
	"slices"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
	"github.com/lueurxax/telegram-feed-connector/internal/platform/observability"
)

// DefaultBackfillLimit caps the first fetch of a channel without a watermark.
const DefaultBackfillLimit = 20

const (
	logFieldChannel   = "channel"
	logFieldChannelID = "channel_id"
	logFieldLastID    = "last_id"
	logFieldCount     = "count"
)

// ChannelBatch holds the new messages of one channel, oldest first.
type ChannelBatch struct {
	Channel  domain.Channel
	Messages []domain.RawMessage
}

// ChannelStats counts what happened to the listed channels during one fetch.
type ChannelStats struct {
	Listed          int
	SkippedUpToDate int
	SkippedDirect   int
	Failed          int
	Fetched         int
}

// Reader fetches incremental channel history.
type Reader struct {
	platform      Platform
	watermarks    WatermarkSource
	backfillLimit int
	logger        *zerolog.Logger
}

// New creates a reader. A non-positive backfillLimit uses DefaultBackfillLimit.
func New(platform Platform, watermarks WatermarkSource, backfillLimit int, logger *zerolog.Logger) *Reader {
	if backfillLimit <= 0 {
		backfillLimit = DefaultBackfillLimit
	}

	return &Reader{
		platform:      platform,
		watermarks:    watermarks,
		backfillLimit: backfillLimit,
		logger:        logger,
	}
}

// Watermarks returns the stored watermarks, or an empty map when the store cannot be read.
func (r *Reader) Watermarks(ctx context.Context) map[string]int64 {
	marks, err := r.watermarks.GetWatermarks(ctx, domain.PlatformTelegram)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to read watermarks, fetching as if empty")

		return map[string]int64{}
	}

	if len(marks) == 0 {
		r.logger.Info().Msg("No stored messages found")
	}

	return marks
}

// Fetch lists channels and collects the messages newer than each channel's watermark.
// Channel failures are logged and counted; only context cancellation is returned.
func (r *Reader) Fetch(ctx context.Context) ([]ChannelBatch, ChannelStats, error) {
	var stats ChannelStats

	marks := r.Watermarks(ctx)

	channels, err := r.platform.ListChannels(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, stats, ctx.Err()
		}

		r.logger.Warn().Err(err).Msg("failed to list channels")

		return nil, stats, nil
	}

	stats.Listed = len(channels)

	var batches []ChannelBatch

	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return batches, stats, err
		}

		if ch.IsDirect() {
			stats.SkippedDirect++
			observability.ChannelsTotal.WithLabelValues(observability.ChannelOutcomeDirect).Inc()

			continue
		}

		lastID := marks[ch.Key()]
		if ch.TopMessageID <= lastID {
			stats.SkippedUpToDate++
			observability.ChannelsTotal.WithLabelValues(observability.ChannelOutcomeUpToDate).Inc()

			continue
		}

		msgs, err := r.fetchChannel(ctx, ch, lastID)
		if err != nil {
			if ctx.Err() != nil {
				return batches, stats, ctx.Err()
			}

			stats.Failed++
			observability.ChannelsTotal.WithLabelValues(observability.ChannelOutcomeFailed).Inc()
			r.logger.Warn().Err(err).
				Str(logFieldChannelID, ch.Key()).
				Str(logFieldChannel, ch.Title).
				Msg("failed to fetch channel history")

			continue
		}

		if len(msgs) == 0 {
			observability.ChannelsTotal.WithLabelValues(observability.ChannelOutcomeNoMessages).Inc()
			continue
		}

		stats.Fetched += len(msgs)
		observability.ChannelsTotal.WithLabelValues(observability.ChannelOutcomeFetched).Inc()
		observability.MessagesFetched.WithLabelValues(ch.Key()).Add(float64(len(msgs)))

		batches = append(batches, ChannelBatch{Channel: ch, Messages: msgs})
	}

	return batches, stats, nil
}

// fetchChannel returns the messages of ch above lastID, oldest first.
func (r *Reader) fetchChannel(ctx context.Context, ch domain.Channel, lastID int64) ([]domain.RawMessage, error) {
	limit := 0
	if lastID == 0 {
		limit = r.backfillLimit
	}

	r.logger.Info().
		Str(logFieldChannelID, ch.Key()).
		Str(logFieldChannel, ch.Title).
		Int64(logFieldLastID, lastID).
		Msg("Obtaining chat history")

	history, err := r.platform.FetchHistory(ctx, ch, lastID, limit)
	if err != nil {
		return nil, err
	}

	msgs := make([]domain.RawMessage, 0, len(history))

	for _, m := range slices.Backward(history) {
		if m.ID <= lastID {
			continue
		}

		msgs = append(msgs, m)
	}

	r.logger.Debug().Str(logFieldChannelID, ch.Key()).Int(logFieldCount, len(msgs)).Msg("Fetched channel history")

	return msgs, nil
}
