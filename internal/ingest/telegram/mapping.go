package telegram

import (
	"strconv"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
)

// peerRef converts a platform peer into a domain reference.
func peerRef(p tg.PeerClass) (domain.PeerRef, bool) {
	switch v := p.(type) {
	case *tg.PeerUser:
		return domain.PeerRef{Kind: domain.PeerUser, ID: v.UserID}, true
	case *tg.PeerChat:
		return domain.PeerRef{Kind: domain.PeerChat, ID: v.ChatID}, true
	case *tg.PeerChannel:
		return domain.PeerRef{Kind: domain.PeerChannel, ID: v.ChannelID}, true
	default:
		return domain.PeerRef{}, false
	}
}

// inputPeer builds the request peer of a listed channel.
func inputPeer(ch domain.Channel) tg.InputPeerClass {
	switch ch.Kind {
	case domain.PeerChannel:
		return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
	case domain.PeerChat:
		return &tg.InputPeerChat{ChatID: ch.ID}
	case domain.PeerUser:
		return &tg.InputPeerUser{UserID: ch.ID, AccessHash: ch.AccessHash}
	default:
		return &tg.InputPeerEmpty{}
	}
}

func userEntity(u *tg.User) domain.Entity {
	return domain.Entity{
		Ref:       domain.PeerRef{Kind: domain.PeerUser, ID: u.ID},
		Bot:       u.Bot,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

// chatEntity maps a chat or channel; forbidden chats are not readable and are skipped.
func chatEntity(c tg.ChatClass) (domain.Entity, int64, bool) {
	switch v := c.(type) {
	case *tg.Channel:
		return domain.Entity{
			Ref:      domain.PeerRef{Kind: domain.PeerChannel, ID: v.ID},
			Title:    v.Title,
			Username: v.Username,
		}, v.AccessHash, true
	case *tg.Chat:
		return domain.Entity{
			Ref:   domain.PeerRef{Kind: domain.PeerChat, ID: v.ID},
			Title: v.Title,
		}, 0, true
	default:
		return domain.Entity{}, 0, false
	}
}

// mapMessage converts a history item. Empty messages are reported as not ok.
func mapMessage(m tg.MessageClass) (domain.RawMessage, bool) {
	switch v := m.(type) {
	case *tg.Message:
		return mapRegular(v), true
	case *tg.MessageService:
		raw := domain.RawMessage{
			ID:      int64(v.ID),
			Date:    unixTime(v.Date),
			Service: true,
		}

		raw.PeerID, _ = peerRef(v.PeerID)

		if from, ok := v.GetFromID(); ok {
			if ref, ok := peerRef(from); ok {
				raw.FromID = &ref
			}
		}

		return raw, true
	default:
		return domain.RawMessage{}, false
	}
}

func mapRegular(v *tg.Message) domain.RawMessage {
	raw := domain.RawMessage{
		ID:   int64(v.ID),
		Date: unixTime(v.Date),
		Text: v.Message,
	}

	raw.PeerID, _ = peerRef(v.PeerID)

	if from, ok := v.GetFromID(); ok {
		if ref, ok := peerRef(from); ok {
			raw.FromID = &ref
		}
	}

	if viaBot, ok := v.GetViaBotID(); ok {
		raw.ViaBotID = viaBot
	}

	if header, ok := v.GetReplyTo(); ok {
		if reply, ok := header.(*tg.MessageReplyHeader); ok {
			ref := &domain.ReplyRef{}
			if id, ok := reply.GetReplyToMsgID(); ok {
				ref.MessageID = int64(id)
			}

			if top, ok := reply.GetReplyToTopID(); ok {
				ref.TopID = int64(top)
			}

			raw.ReplyTo = ref
		}
	}

	if media, ok := v.GetMedia(); ok {
		applyMedia(&raw, media)
	}

	return raw
}

func applyMedia(raw *domain.RawMessage, media tg.MessageMediaClass) {
	switch v := media.(type) {
	case *tg.MessageMediaPhoto:
		if photo, ok := v.GetPhoto(); ok {
			if p, ok := photo.(*tg.Photo); ok {
				raw.Attachments = append(raw.Attachments, domain.Attachment{ID: formatID(p.ID), Kind: domain.AttachmentPhoto})
			}
		}
	case *tg.MessageMediaDocument:
		if doc, ok := v.GetDocument(); ok {
			if d, ok := doc.(*tg.Document); ok {
				if kind, ok := documentKind(d); ok {
					raw.Attachments = append(raw.Attachments, domain.Attachment{ID: formatID(d.ID), Kind: kind})
				}
			}
		}
	case *tg.MessageMediaPoll:
		raw.Poll = &domain.Poll{Question: v.Poll.Question.Text}
	case *tg.MessageMediaGeo:
		raw.Geo = geoOf(v.Geo)
	case *tg.MessageMediaGeoLive:
		raw.Geo = geoOf(v.Geo)
	case *tg.MessageMediaVenue:
		raw.Geo = geoOf(v.Geo)
	}
}

// documentKind classifies a document by its attributes; other documents carry no media kind.
func documentKind(d *tg.Document) (domain.AttachmentKind, bool) {
	for _, attr := range d.Attributes {
		switch a := attr.(type) {
		case *tg.DocumentAttributeVideo:
			if a.RoundMessage {
				return domain.AttachmentVideoNote, true
			}

			return domain.AttachmentVideo, true
		case *tg.DocumentAttributeAudio:
			if a.Voice {
				return domain.AttachmentVoice, true
			}

			return domain.AttachmentAudio, true
		}
	}

	return "", false
}

func geoOf(g tg.GeoPointClass) *domain.Geo {
	p, ok := g.(*tg.GeoPoint)
	if !ok {
		return nil
	}

	return &domain.Geo{Lat: p.Lat, Long: p.Long}
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func unixTime(sec int) time.Time {
	return time.Unix(int64(sec), 0).UTC()
}
