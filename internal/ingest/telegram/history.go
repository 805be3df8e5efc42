package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
)

// FetchHistory returns messages of ch with id above minID, newest first.
// A positive limit issues a single request for at most limit messages;
// limit 0 pages backwards until minID is reached.
func (c *Client) FetchHistory(ctx context.Context, ch domain.Channel, minID int64, limit int) ([]domain.RawMessage, error) {
	peer := inputPeer(ch)

	if limit > 0 {
		msgs, _, err := c.historyPage(ctx, ch, &tg.MessagesGetHistoryRequest{Peer: peer, Limit: limit, MinID: int(minID)})

		return msgs, err
	}

	var (
		out      []domain.RawMessage
		offsetID int
	)

	for {
		req := &tg.MessagesGetHistoryRequest{Peer: peer, OffsetID: offsetID, Limit: c.pageSize, MinID: int(minID)}

		msgs, lowest, err := c.historyPage(ctx, ch, req)
		if err != nil {
			return nil, err
		}

		out = append(out, msgs...)

		if lowest == 0 || int64(lowest) <= minID+1 || lowest == offsetID {
			break
		}

		offsetID = lowest
	}

	return out, nil
}

// historyPage fetches one page and returns its mapped messages plus the lowest id
// seen, or 0 when the page was short and no further page exists.
func (c *Client) historyPage(ctx context.Context, ch domain.Channel, req *tg.MessagesGetHistoryRequest) ([]domain.RawMessage, int, error) {
	res, err := withFloodWait(ctx, c, func(ctx context.Context) (tg.MessagesMessagesClass, error) {
		return c.api.MessagesGetHistory(ctx, req)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("get history of %d: %w", ch.ID, err)
	}

	var (
		messages []tg.MessageClass
		chats    []tg.ChatClass
		users    []tg.UserClass
	)

	switch h := res.(type) {
	case *tg.MessagesMessages:
		messages, chats, users = h.Messages, h.Chats, h.Users
	case *tg.MessagesMessagesSlice:
		messages, chats, users = h.Messages, h.Chats, h.Users
	case *tg.MessagesChannelMessages:
		messages, chats, users = h.Messages, h.Chats, h.Users
	case *tg.MessagesMessagesNotModified:
		c.logger.Debug().Int64(logFieldChannelID, ch.ID).Msg("History not modified")

		return nil, 0, nil
	}

	c.entities.remember(users, chats)

	out := make([]domain.RawMessage, 0, len(messages))
	lowest := 0

	for _, m := range messages {
		if id := m.GetID(); lowest == 0 || id < lowest {
			lowest = id
		}

		if raw, ok := mapMessage(m); ok {
			out = append(out, raw)
		}
	}

	if len(messages) < req.Limit {
		lowest = 0
	}

	return out, lowest, nil
}
