package telegram

import (
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
)

func TestMapMessage_Regular(t *testing.T) {
	msg := &tg.Message{
		ID:      42,
		Date:    1_767_225_600,
		Message: "hello",
		PeerID:  &tg.PeerChannel{ChannelID: 77},
	}
	msg.SetFromID(&tg.PeerUser{UserID: 9})
	msg.SetViaBotID(31)
	msg.SetReplyTo(replyHeader(10, 4))

	raw, ok := mapMessage(msg)

	require.True(t, ok)
	require.Equal(t, int64(42), raw.ID)
	require.Equal(t, time.Unix(1_767_225_600, 0).UTC(), raw.Date)
	require.Equal(t, "hello", raw.Text)
	require.False(t, raw.Service)
	require.Equal(t, &domain.PeerRef{Kind: domain.PeerUser, ID: 9}, raw.FromID)
	require.Equal(t, domain.PeerRef{Kind: domain.PeerChannel, ID: 77}, raw.PeerID)
	require.Equal(t, int64(31), raw.ViaBotID)
	require.Equal(t, &domain.ReplyRef{MessageID: 10, TopID: 4}, raw.ReplyTo)
}

func replyHeader(msgID, topID int) *tg.MessageReplyHeader {
	h := &tg.MessageReplyHeader{}
	h.SetReplyToMsgID(msgID)

	if topID != 0 {
		h.SetReplyToTopID(topID)
	}

	return h
}

func TestMapMessage_ServiceAndEmpty(t *testing.T) {
	svc := &tg.MessageService{ID: 5, Date: 1_700_000_000, PeerID: &tg.PeerChat{ChatID: 3}, Action: &tg.MessageActionChatCreate{}}

	raw, ok := mapMessage(svc)
	require.True(t, ok)
	require.True(t, raw.Service)
	require.Equal(t, domain.PeerRef{Kind: domain.PeerChat, ID: 3}, raw.PeerID)
	require.Nil(t, raw.FromID)

	_, ok = mapMessage(&tg.MessageEmpty{ID: 6})
	require.False(t, ok)
}

func TestMapMessage_Media(t *testing.T) {
	tests := []struct {
		name  string
		media tg.MessageMediaClass
		check func(t *testing.T, raw domain.RawMessage)
	}{
		{
			name:  "photo",
			media: photoMedia(1001),
			check: func(t *testing.T, raw domain.RawMessage) {
				require.Equal(t, []domain.Attachment{{ID: "1001", Kind: domain.AttachmentPhoto}}, raw.Attachments)
			},
		},
		{
			name:  "video",
			media: documentMedia(2001, &tg.DocumentAttributeVideo{}),
			check: func(t *testing.T, raw domain.RawMessage) {
				require.Equal(t, []domain.Attachment{{ID: "2001", Kind: domain.AttachmentVideo}}, raw.Attachments)
			},
		},
		{
			name:  "video note",
			media: documentMedia(2002, &tg.DocumentAttributeVideo{RoundMessage: true}),
			check: func(t *testing.T, raw domain.RawMessage) {
				require.Equal(t, []domain.Attachment{{ID: "2002", Kind: domain.AttachmentVideoNote}}, raw.Attachments)
			},
		},
		{
			name:  "audio",
			media: documentMedia(2003, &tg.DocumentAttributeFilename{FileName: "a.mp3"}, &tg.DocumentAttributeAudio{}),
			check: func(t *testing.T, raw domain.RawMessage) {
				require.Equal(t, []domain.Attachment{{ID: "2003", Kind: domain.AttachmentAudio}}, raw.Attachments)
			},
		},
		{
			name:  "voice",
			media: documentMedia(2004, &tg.DocumentAttributeAudio{Voice: true}),
			check: func(t *testing.T, raw domain.RawMessage) {
				require.Equal(t, []domain.Attachment{{ID: "2004", Kind: domain.AttachmentVoice}}, raw.Attachments)
			},
		},
		{
			name:  "plain file",
			media: documentMedia(2005, &tg.DocumentAttributeFilename{FileName: "doc.pdf"}),
			check: func(t *testing.T, raw domain.RawMessage) {
				require.Empty(t, raw.Attachments)
			},
		},
		{
			name:  "geo",
			media: &tg.MessageMediaGeo{Geo: &tg.GeoPoint{Lat: 52.5, Long: 13.4}},
			check: func(t *testing.T, raw domain.RawMessage) {
				require.Equal(t, &domain.Geo{Lat: 52.5, Long: 13.4}, raw.Geo)
			},
		},
		{
			name:  "venue",
			media: &tg.MessageMediaVenue{Geo: &tg.GeoPoint{Lat: 1, Long: 2}, Title: "Cafe"},
			check: func(t *testing.T, raw domain.RawMessage) {
				require.Equal(t, &domain.Geo{Lat: 1, Long: 2}, raw.Geo)
			},
		},
		{
			name:  "empty geo",
			media: &tg.MessageMediaGeo{Geo: &tg.GeoPointEmpty{}},
			check: func(t *testing.T, raw domain.RawMessage) {
				require.Nil(t, raw.Geo)
			},
		},
		{
			name:  "poll",
			media: &tg.MessageMediaPoll{Poll: tg.Poll{Question: tg.TextWithEntities{Text: "Tabs or spaces?"}}},
			check: func(t *testing.T, raw domain.RawMessage) {
				require.Equal(t, &domain.Poll{Question: "Tabs or spaces?"}, raw.Poll)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &tg.Message{ID: 1, Date: 1, PeerID: &tg.PeerChannel{ChannelID: 1}}
			msg.SetMedia(tt.media)

			raw, ok := mapMessage(msg)

			require.True(t, ok)
			tt.check(t, raw)
		})
	}
}

func photoMedia(id int64) *tg.MessageMediaPhoto {
	m := &tg.MessageMediaPhoto{}
	m.SetPhoto(&tg.Photo{ID: id})

	return m
}

func documentMedia(id int64, attrs ...tg.DocumentAttributeClass) *tg.MessageMediaDocument {
	m := &tg.MessageMediaDocument{}
	m.SetDocument(&tg.Document{ID: id, Attributes: attrs})

	return m
}

func TestInputPeer(t *testing.T) {
	require.Equal(t, &tg.InputPeerChannel{ChannelID: 1, AccessHash: 2},
		inputPeer(domain.Channel{ID: 1, AccessHash: 2, Kind: domain.PeerChannel}))
	require.Equal(t, &tg.InputPeerChat{ChatID: 3}, inputPeer(domain.Channel{ID: 3, Kind: domain.PeerChat}))
	require.Equal(t, &tg.InputPeerUser{UserID: 4, AccessHash: 5},
		inputPeer(domain.Channel{ID: 4, AccessHash: 5, Kind: domain.PeerUser}))
	require.Equal(t, &tg.InputPeerEmpty{}, inputPeer(domain.Channel{}))
}

func TestPhoneHelpers(t *testing.T) {
	require.Equal(t, "+15551234567", sanitizePhone(" +1 (555) 123-45-67\n"))
	require.Equal(t, "79991112233", sanitizePhone("7 999 111 22 33"))
	require.Equal(t, "+15****67", maskPhone("+15551234567"))
	require.Equal(t, "****", maskPhone("123"))
}
