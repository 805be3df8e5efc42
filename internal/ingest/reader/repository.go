package reader

import (
	"context"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
	db "github.com/lueurxax/telegram-feed-connector/internal/storage"
)

// Platform is the chat platform the fetcher reads from.
type Platform interface {
	// ListChannels returns the account's non-archived dialogs.
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	// FetchHistory returns messages of ch newer than minID, newest first.
	// limit 0 means every message above minID.
	FetchHistory(ctx context.Context, ch domain.Channel, minID int64, limit int) ([]domain.RawMessage, error)
}

// WatermarkSource reports the highest stored message id per channel.
type WatermarkSource interface {
	GetWatermarks(ctx context.Context, platform string) (map[string]int64, error)
}

// Compile-time assertion that *db.DB implements WatermarkSource.
var _ WatermarkSource = (*db.DB)(nil)
