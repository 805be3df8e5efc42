// Package normalize converts platform-native messages into the canonical feed record.
package normalize

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
)

const (
	publicLinkBase = "https://t.me/"

	logFieldChannelID = "channel_id"
	logFieldMsgID     = "msg_id"
)

// EntityResolver looks up the author of a message.
type EntityResolver interface {
	ResolveEntity(ctx context.Context, ref domain.PeerRef) (domain.Entity, error)
}

// MediaResolver turns attachments into durable media URLs.
type MediaResolver interface {
	Resolve(ctx context.Context, username string, messageID int64, attachments []domain.Attachment) []domain.MediaElement
}

// Normalizer builds NormalizedMessage values from raw history items.
type Normalizer struct {
	entities  EntityResolver
	media     MediaResolver
	accountID string
	logger    *zerolog.Logger
}

// New creates a normalizer. media may be nil to skip media resolution.
func New(entities EntityResolver, media MediaResolver, accountID string, logger *zerolog.Logger) *Normalizer {
	return &Normalizer{
		entities:  entities,
		media:     media,
		accountID: accountID,
		logger:    logger,
	}
}

// Normalize maps one raw message of ch. Messages that must not enter the feed
// come back as a skip; a panic while mapping becomes a normalize_error skip.
func (n *Normalizer) Normalize(ctx context.Context, ch domain.Channel, raw domain.RawMessage) (res domain.Result[domain.NormalizedMessage]) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().
				Int64(logFieldChannelID, ch.ID).
				Int64(logFieldMsgID, raw.ID).
				Interface("panic", r).
				Msg("message normalization panicked")

			res = domain.Skip[domain.NormalizedMessage](domain.SkipNormalizeError, fmt.Sprint(r))
		}
	}()

	if raw.ViaBotID != 0 {
		return domain.Skip[domain.NormalizedMessage](domain.SkipBotAuthor, "sent via bot")
	}

	author, err := n.entities.ResolveEntity(ctx, raw.AuthorRef())
	if err != nil {
		n.logger.Warn().Err(err).
			Int64(logFieldChannelID, ch.ID).
			Int64(logFieldMsgID, raw.ID).
			Msg("failed to resolve message author")

		return domain.Skip[domain.NormalizedMessage](domain.SkipResolveAuthor, err.Error())
	}

	if author.Bot {
		return domain.Skip[domain.NormalizedMessage](domain.SkipBotAuthor, "bot author")
	}

	if raw.Service {
		return domain.Skip[domain.NormalizedMessage](domain.SkipNoText, "service message")
	}

	msg := domain.NormalizedMessage{
		Timestamp: raw.Date.UTC(),
		Message: domain.MessageBody{
			ID:   strconv.FormatInt(raw.ID, 10),
			Text: raw.Text,
		},
		User: domain.User{
			ID:   strconv.FormatInt(author.Ref.ID, 10),
			Name: displayName(author, ch),
		},
		Source: domain.Source{
			Platform:  domain.PlatformTelegram,
			AccountID: n.accountID,
			Channel:   domain.ChannelInfo{ID: ch.Key(), Name: ch.Title},
		},
	}

	if ch.Username != "" {
		msg.Message.URL = publicLinkBase + ch.Username
	}

	if raw.Geo != nil {
		msg.GeoCoords = domain.NewGeoPoint(raw.Geo.Lat, raw.Geo.Long)
	}

	if raw.Poll != nil {
		msg.Message.Text = raw.Poll.Question
	}

	if ref := referencedPost(raw.ReplyTo); ref != nil {
		msg.Source.ReferencedPost = ref
	}

	if n.media != nil {
		if media := n.media.Resolve(ctx, ch.Username, raw.ID, raw.Attachments); len(media) > 0 {
			msg.Message.Media = media
		}
	}

	return domain.Ok(msg)
}

// displayName is "first last", else the author's username, else the channel title.
func displayName(author domain.Entity, ch domain.Channel) string {
	name := strings.TrimSpace(author.FirstName + " " + author.LastName)
	if name != "" {
		return name
	}

	if author.Username != "" {
		return author.Username
	}

	return ch.Title
}

func referencedPost(reply *domain.ReplyRef) *domain.PostRef {
	if reply == nil {
		return nil
	}

	id := reply.TopID
	if id == 0 {
		id = reply.MessageID
	}

	if id == 0 {
		return nil
	}

	return &domain.PostRef{ID: strconv.FormatInt(id, 10)}
}
