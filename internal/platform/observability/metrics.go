package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_sync_runs_total",
		Help: "The total number of sync passes by outcome",
	}, []string{"status"})

	SyncDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_sync_duration_seconds",
		Help:    "Duration in seconds of a sync pass",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300, 600},
	})

	SyncLastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feed_sync_last_success_timestamp_seconds",
		Help: "Unix time of the last successful sync pass",
	})

	ChannelsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_channels_total",
		Help: "Channels seen by the history fetcher by outcome",
	}, []string{"outcome"})

	MessagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_messages_fetched_total",
		Help: "The total number of raw messages fetched",
	}, []string{"channel"})

	MessagesNormalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_messages_normalized_total",
		Help: "The total number of messages that passed normalization and validation",
	})

	DropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_drops_total",
		Help: "Total number of dropped messages by reason",
	}, []string{"reason"})

	MessagesGlued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_messages_glued_total",
		Help: "The total number of records produced by the gluer",
	})

	FeedRowsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_rows_written_total",
		Help: "The total number of feed rows sent to the store",
	})

	FeedRowsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_rows_failed_total",
		Help: "The total number of feed rows that could not be built",
	})

	BatchWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_batch_write_errors_total",
		Help: "The total number of rolled back batch writes",
	})

	MediaResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_media_resolutions_total",
		Help: "Media preview lookups by result",
	}, []string{"result"})

	EmbeddingsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_embeddings_stored_total",
		Help: "The total number of content embeddings stored",
	})

	EmbeddingErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_embedding_errors_total",
		Help: "The total number of failed embedding requests",
	})

	TelegramFloodWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_telegram_flood_waits_total",
		Help: "The total number of FLOOD_WAIT responses honored",
	})
)

// Channel outcome labels.
const (
	ChannelOutcomeFetched    = "fetched"
	ChannelOutcomeUpToDate   = "up_to_date"
	ChannelOutcomeDirect     = "direct"
	ChannelOutcomeFailed     = "failed"
	ChannelOutcomeNoMessages = "empty"
)

// Run status labels.
const (
	RunStatusSuccess = "success"
	RunStatusError   = "error"
	RunStatusBusy    = "busy"
)

// Media resolution labels.
const (
	MediaResultFound    = "found"
	MediaResultNotFound = "not_found"
	MediaResultError    = "error"
)
