package telegram

import (
	"context"
	"time"

	"github.com/gotd/td/tgerr"

	"github.com/lueurxax/telegram-feed-connector/internal/platform/observability"
)

// withFloodWait runs call, sleeping and retrying when the server answers FLOOD_WAIT.
func withFloodWait[T any](ctx context.Context, c *Client, call func(ctx context.Context) (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		res, err := call(ctx)
		if err == nil {
			return res, nil
		}

		floodErr, ok := tgerr.As(err)
		if !ok || floodErr.Type != floodWaitErrorType || attempt >= maxFloodRetries {
			return res, err
		}

		observability.TelegramFloodWaits.Inc()
		c.logger.Warn().Int(logFieldSeconds, floodErr.Argument).Int(logFieldAttempt, attempt+1).Msg("flood wait")

		if err := c.wait(ctx, time.Duration(floodErr.Argument)*time.Second); err != nil {
			return res, err
		}
	}
}
