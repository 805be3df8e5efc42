package domain

import (
	"strconv"
	"time"
)

// PlatformTelegram is the platform_name written to the feed.
const PlatformTelegram = "telegram"

// PeerKind identifies the kind of a Telegram peer.
type PeerKind string

// Peer kind constants.
const (
	PeerUser    PeerKind = "user"
	PeerChat    PeerKind = "chat"
	PeerChannel PeerKind = "channel"
)

// PeerRef references a user, basic group or channel by id.
type PeerRef struct {
	Kind PeerKind
	ID   int64
}

// Channel is a dialog from the account's channel list.
// The platform is the source of truth; the connector never writes it back.
type Channel struct {
	ID           int64
	AccessHash   int64
	Title        string
	Username     string
	Kind         PeerKind
	TopMessageID int64
	Archived     bool
}

// IsDirect reports whether the dialog is a one-to-one chat with a user.
func (c Channel) IsDirect() bool {
	return c.Kind == PeerUser
}

// Key returns the identifier used as source_channel_id and watermark key.
func (c Channel) Key() string {
	return strconv.FormatInt(c.ID, 10)
}

// Ref returns the peer reference of the channel itself.
func (c Channel) Ref() PeerRef {
	return PeerRef{Kind: c.Kind, ID: c.ID}
}

// Entity is a resolved message author.
type Entity struct {
	Ref       PeerRef
	Bot       bool
	FirstName string
	LastName  string
	Username  string
	Title     string
}

// AttachmentKind is the platform-native media kind of a message.
type AttachmentKind string

// Attachment kind constants.
const (
	AttachmentPhoto     AttachmentKind = "photo"
	AttachmentAudio     AttachmentKind = "audio"
	AttachmentVoice     AttachmentKind = "voice"
	AttachmentVideo     AttachmentKind = "video"
	AttachmentVideoNote AttachmentKind = "video_note"
)

// Attachment describes one media object carried by a raw message.
type Attachment struct {
	ID   string
	Kind AttachmentKind
}

// Poll holds the part of a poll the connector keeps.
type Poll struct {
	Question string
}

// Geo is a geographic point attached to a message.
type Geo struct {
	Lat  float64
	Long float64
}

// ReplyRef is the reply header of a message.
type ReplyRef struct {
	MessageID int64
	TopID     int64
}

// RawMessage is a message as returned by history retrieval. It is never persisted.
type RawMessage struct {
	ID          int64
	Date        time.Time
	Text        string
	Service     bool
	FromID      *PeerRef
	PeerID      PeerRef
	ViaBotID    int64
	Poll        *Poll
	Geo         *Geo
	Attachments []Attachment
	ReplyTo     *ReplyRef
}

// AuthorRef returns the sender of the message, falling back to the peer it was posted in.
func (m RawMessage) AuthorRef() PeerRef {
	if m.FromID != nil {
		return *m.FromID
	}

	return m.PeerID
}
