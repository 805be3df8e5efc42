// Package writer persists glued messages: every distinct text once in
// unique_messages, then one message_feed row per message, all in one transaction.
package writer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
	"github.com/lueurxax/telegram-feed-connector/internal/core/embeddings"
	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
	"github.com/lueurxax/telegram-feed-connector/internal/platform/observability"
	db "github.com/lueurxax/telegram-feed-connector/internal/storage"
)

const (
	embeddingChunkSize = 64

	logFieldMsgID     = "msg_id"
	logFieldChannelID = "channel_id"
	logFieldContentID = "content_id"
)

// FeedStore opens batch write transactions.
type FeedStore interface {
	BeginFeedTx(ctx context.Context) (db.FeedTx, error)
}

// EmbeddingStore reads and updates content embeddings.
type EmbeddingStore interface {
	ContentsWithoutEmbedding(ctx context.Context, ids []int64) ([]db.Content, error)
	SaveContentEmbedding(ctx context.Context, id int64, embedding []float32) error
}

var (
	_ FeedStore      = (*db.DB)(nil)
	_ EmbeddingStore = (*db.DB)(nil)
)

// WriteReport describes one committed batch.
type WriteReport struct {
	Contents   int
	Rows       int
	Inserted   int64
	Failed     []domain.FailedRow
	ContentIDs []int64
	Embedded   int
}

// Writer writes batches of glued messages.
type Writer struct {
	store      FeedStore
	embedStore EmbeddingStore
	embedder   embeddings.Client
	logger     *zerolog.Logger
}

// New creates a writer without embedding backfill.
func New(store FeedStore, logger *zerolog.Logger) *Writer {
	return &Writer{store: store, logger: logger}
}

// WithEmbeddings enables embedding backfill after each committed batch.
func (w *Writer) WithEmbeddings(store EmbeddingStore, client embeddings.Client) *Writer {
	w.embedStore = store
	w.embedder = client

	return w
}

// Write stores msgs in one transaction. Messages whose text id cannot be found are
// reported in Failed and do not abort the batch. Any other failure rolls the whole
// batch back and returns an error wrapping ErrBatchWrite.
func (w *Writer) Write(ctx context.Context, msgs []domain.NormalizedMessage) (WriteReport, error) {
	var report WriteReport

	if len(msgs) == 0 {
		return report, nil
	}

	tx, err := w.store.BeginFeedTx(ctx)
	if err != nil {
		return report, w.batchError("begin", err)
	}

	committed := false

	defer func() {
		if committed {
			return
		}

		if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
			w.logger.Error().Err(err).Msg("failed to roll back feed batch")
		}
	}()

	texts := distinctTexts(msgs)
	report.Contents = len(texts)

	if err := tx.InsertContents(ctx, texts); err != nil {
		return report, w.batchError("insert contents", err)
	}

	ids, err := tx.ContentIDs(ctx, texts)
	if err != nil {
		return report, w.batchError("lookup contents", err)
	}

	rows, failed := BuildRows(msgs, ids)
	report.Rows = len(rows)
	report.Failed = failed

	for _, f := range failed {
		w.logger.Error().
			Str(logFieldMsgID, f.Message.Message.ID).
			Str(logFieldChannelID, f.Message.Source.Channel.ID).
			Str("reason", f.Reason).
			Msg("failed to build feed row")
	}

	inserted, err := tx.InsertFeedRows(ctx, rows)
	if err != nil {
		return report, w.batchError("insert feed rows", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return report, w.batchError("commit", err)
	}

	committed = true
	report.Inserted = inserted
	report.ContentIDs = contentIDs(rows)

	observability.FeedRowsWritten.Add(float64(inserted))
	observability.FeedRowsFailed.Add(float64(len(failed)))

	w.logger.Info().
		Int("contents", report.Contents).
		Int("rows", report.Rows).
		Int64("inserted", inserted).
		Int("failed", len(failed)).
		Msg("Batch inserted unique messages and message feed")

	report.Embedded = w.backfillEmbeddings(ctx, report.ContentIDs)

	return report, nil
}

func (w *Writer) batchError(stage string, err error) error {
	observability.BatchWriteErrors.Inc()
	w.logger.Error().Err(err).Str("stage", stage).Msg("failed to batch insert messages")

	return fmt.Errorf("%w: %s: %w", apperrors.ErrBatchWrite, stage, err)
}

// BuildRows maps messages to feed rows using the content ids of their texts.
// ids is keyed by the stored form of each text.
func BuildRows(msgs []domain.NormalizedMessage, ids map[string]int64) ([]domain.FeedRow, []domain.FailedRow) {
	rows := make([]domain.FeedRow, 0, len(msgs))

	var failed []domain.FailedRow

	for _, m := range msgs {
		contentID, ok := ids[db.SanitizeUTF8(m.Message.Text)]
		if !ok {
			failed = append(failed, domain.FailedRow{Message: m, Reason: apperrors.ErrContentIDMissing.Error()})
			continue
		}

		specific, err := json.Marshal(domain.PlatformSpecificOf(m))
		if err != nil {
			failed = append(failed, domain.FailedRow{Message: m, Reason: fmt.Sprintf("encode platform_specific: %v", err)})
			continue
		}

		rows = append(rows, domain.FeedRow{
			Timestamp:        m.Timestamp,
			PlatformName:     m.Source.Platform,
			PlatformUserID:   m.User.ID,
			PlatformUserName: m.User.Name,
			MessageID:        m.Message.ID,
			MessageURL:       m.Message.URL,
			SourceAccountID:  m.Source.AccountID,
			ChannelName:      m.Source.Channel.Name,
			ChannelID:        m.Source.Channel.ID,
			PlatformSpecific: specific,
			ContentID:        contentID,
		})
	}

	return rows, failed
}

func distinctTexts(msgs []domain.NormalizedMessage) []string {
	seen := make(map[string]bool, len(msgs))
	texts := make([]string, 0, len(msgs))

	for _, m := range msgs {
		if seen[m.Message.Text] {
			continue
		}

		seen[m.Message.Text] = true
		texts = append(texts, m.Message.Text)
	}

	return texts
}

func contentIDs(rows []domain.FeedRow) []int64 {
	seen := make(map[int64]bool, len(rows))
	ids := make([]int64, 0, len(rows))

	for _, r := range rows {
		if seen[r.ContentID] {
			continue
		}

		seen[r.ContentID] = true
		ids = append(ids, r.ContentID)
	}

	return ids
}
