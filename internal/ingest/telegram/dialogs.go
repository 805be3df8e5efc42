package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
)

const (
	dialogsPageSize = 100
	mainFolderID    = 0
)

type dialogsPage struct {
	dialogs  []tg.DialogClass
	messages []tg.MessageClass
	chats    []tg.ChatClass
	users    []tg.UserClass
	total    int
	complete bool
}

// ListChannels returns every dialog of the main (non-archived) folder.
func (c *Client) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	var (
		channels []domain.Channel
		seen     = make(map[domain.PeerRef]bool)
		req      = &tg.MessagesGetDialogsRequest{OffsetPeer: &tg.InputPeerEmpty{}, Limit: dialogsPageSize}
	)

	req.SetFolderID(mainFolderID)

	for {
		page, err := c.dialogsPage(ctx, req)
		if err != nil {
			return nil, err
		}

		c.entities.remember(page.users, page.chats)

		added := 0

		for _, d := range page.dialogs {
			ch, ok := c.channelOf(d)
			if !ok || seen[ch.Ref()] {
				continue
			}

			seen[ch.Ref()] = true
			channels = append(channels, ch)
			added++
		}

		if page.complete || added == 0 || len(channels) >= page.total {
			break
		}

		if !nextDialogsOffset(req, page, channels[len(channels)-1]) {
			break
		}
	}

	return channels, nil
}

func (c *Client) dialogsPage(ctx context.Context, req *tg.MessagesGetDialogsRequest) (dialogsPage, error) {
	res, err := withFloodWait(ctx, c, func(ctx context.Context) (tg.MessagesDialogsClass, error) {
		return c.api.MessagesGetDialogs(ctx, req)
	})
	if err != nil {
		return dialogsPage{}, fmt.Errorf("get dialogs: %w", err)
	}

	switch v := res.(type) {
	case *tg.MessagesDialogs:
		return dialogsPage{dialogs: v.Dialogs, messages: v.Messages, chats: v.Chats, users: v.Users, complete: true}, nil
	case *tg.MessagesDialogsSlice:
		return dialogsPage{dialogs: v.Dialogs, messages: v.Messages, chats: v.Chats, users: v.Users, total: v.Count}, nil
	default:
		return dialogsPage{complete: true}, nil
	}
}

// channelOf maps a dialog to a channel using the entities cached from the same page.
func (c *Client) channelOf(d tg.DialogClass) (domain.Channel, bool) {
	dialog, ok := d.(*tg.Dialog)
	if !ok {
		return domain.Channel{}, false
	}

	ref, ok := peerRef(dialog.Peer)
	if !ok {
		return domain.Channel{}, false
	}

	e, ok := c.entities.get(ref)
	if !ok {
		return domain.Channel{}, false
	}

	title := e.Title
	if ref.Kind == domain.PeerUser {
		title = fullName(e.FirstName, e.LastName)
	}

	return domain.Channel{
		ID:           ref.ID,
		AccessHash:   c.entities.accessHash(ref),
		Title:        title,
		Username:     e.Username,
		Kind:         ref.Kind,
		TopMessageID: int64(dialog.TopMessage),
	}, true
}

// nextDialogsOffset points req after the last dialog of page.
func nextDialogsOffset(req *tg.MessagesGetDialogsRequest, page dialogsPage, last domain.Channel) bool {
	for _, m := range page.messages {
		var id, date int

		var peer tg.PeerClass

		switch v := m.(type) {
		case *tg.Message:
			id, date, peer = v.ID, v.Date, v.PeerID
		case *tg.MessageService:
			id, date, peer = v.ID, v.Date, v.PeerID
		default:
			continue
		}

		ref, ok := peerRef(peer)
		if !ok || ref != last.Ref() || int64(id) != last.TopMessageID {
			continue
		}

		req.OffsetID = id
		req.OffsetDate = date
		req.OffsetPeer = inputPeer(last)

		return true
	}

	return false
}
