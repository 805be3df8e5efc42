package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
)

// FeedTx is one batch write: unique contents first, then feed rows, then commit.
type FeedTx interface {
	// InsertContents stores texts that are not yet in unique_messages.
	InsertContents(ctx context.Context, contents []string) error
	// ContentIDs maps each stored text to its unique_messages id.
	ContentIDs(ctx context.Context, contents []string) (map[string]int64, error)
	// InsertFeedRows inserts rows, skipping ones already present, and reports how many were new.
	InsertFeedRows(ctx context.Context, rows []domain.FeedRow) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type feedTx struct {
	tx pgx.Tx
}

// BeginFeedTx opens the transaction of one batch write.
func (db *DB) BeginFeedTx(ctx context.Context) (FeedTx, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin feed transaction: %w", err)
	}

	return &feedTx{tx: tx}, nil
}

func (f *feedTx) InsertContents(ctx context.Context, contents []string) error {
	if len(contents) == 0 {
		return nil
	}

	_, err := f.tx.Exec(ctx, `
		INSERT INTO unique_messages (content)
		SELECT DISTINCT c FROM unnest($1::text[]) AS c
		ON CONFLICT (content) DO NOTHING
	`, sanitizeAll(contents))
	if err != nil {
		return fmt.Errorf("insert unique messages: %w", err)
	}

	return nil
}

func (f *feedTx) ContentIDs(ctx context.Context, contents []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(contents))
	if len(contents) == 0 {
		return ids, nil
	}

	rows, err := f.tx.Query(ctx, `
		SELECT content, id FROM unique_messages
		WHERE content = ANY($1)
	`, sanitizeAll(contents))
	if err != nil {
		return nil, fmt.Errorf("select unique message ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			content string
			id      int64
		)

		if err := rows.Scan(&content, &id); err != nil {
			return nil, fmt.Errorf("scan unique message id: %w", err)
		}

		ids[content] = id
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unique message ids: %w", err)
	}

	return ids, nil
}

func (f *feedTx) InsertFeedRows(ctx context.Context, rows []domain.FeedRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}

	for _, r := range rows {
		batch.Queue(`
			INSERT INTO message_feed (
				timestamp, platform_name, platform_user_id, platform_user_name,
				platform_message_id, platform_message_url, source_account_id, source_channel_name,
				source_channel_id, platform_specific, message_id
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (timestamp, platform_name, platform_message_id) DO NOTHING
		`,
			r.Timestamp,
			r.PlatformName,
			r.PlatformUserID,
			SanitizeUTF8(r.PlatformUserName),
			r.MessageID,
			nullIfEmpty(r.MessageURL),
			nullIfEmpty(r.SourceAccountID),
			nullIfEmpty(SanitizeUTF8(r.ChannelName)),
			nullIfEmpty(r.ChannelID),
			string(r.PlatformSpecific),
			r.ContentID,
		)
	}

	results := f.tx.SendBatch(ctx, batch)

	var inserted int64

	for range rows {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()

			return inserted, fmt.Errorf("insert message feed row: %w", err)
		}

		inserted += tag.RowsAffected()
	}

	if err := results.Close(); err != nil {
		return inserted, fmt.Errorf("close message feed batch: %w", err)
	}

	return inserted, nil
}

func (f *feedTx) Commit(ctx context.Context) error {
	if err := f.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit feed transaction: %w", err)
	}

	return nil
}

func (f *feedTx) Rollback(ctx context.Context) error {
	if err := f.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("rollback feed transaction: %w", err)
	}

	return nil
}

// GetWatermarks returns the highest stored message id per source channel of a platform.
func (db *DB) GetWatermarks(ctx context.Context, platform string) (map[string]int64, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT source_channel_id, MAX(CAST(platform_message_id AS BIGINT))
		FROM message_feed
		WHERE platform_name = $1
		  AND source_channel_id IS NOT NULL
		  AND platform_message_id ~ '^[0-9]+$'
		GROUP BY source_channel_id
	`, platform)
	if err != nil {
		return nil, fmt.Errorf("query watermarks: %w", err)
	}
	defer rows.Close()

	marks := make(map[string]int64)

	for rows.Next() {
		var (
			channelID string
			lastID    int64
		)

		if err := rows.Scan(&channelID, &lastID); err != nil {
			return nil, fmt.Errorf("scan watermark: %w", err)
		}

		marks[channelID] = lastID
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watermarks: %w", err)
	}

	return marks, nil
}

func sanitizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = SanitizeUTF8(v)
	}

	return out
}
