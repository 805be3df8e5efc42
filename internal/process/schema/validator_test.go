package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
)

func validMessage() domain.NormalizedMessage {
	return domain.NormalizedMessage{
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Message: domain.MessageBody{
			ID:    "42",
			Text:  "hello from the channel",
			URL:   "https://t.me/chan",
			Media: []domain.MediaElement{{ID: "1", Type: domain.MediaImage, URL: "https://cdn/x.jpg"}},
		},
		User: domain.User{ID: "1001", Name: "Jane Doe"},
		Source: domain.Source{
			Platform:  domain.PlatformTelegram,
			AccountID: "12345",
			Channel:   domain.ChannelInfo{ID: "2002", Name: "Chan"},
		},
		GeoCoords: domain.NewGeoPoint(52.5, 13.4),
	}
}

func newValidator(t *testing.T) *Validator {
	t.Helper()

	v, err := New()
	require.NoError(t, err)

	return v
}

func TestValidator_AcceptsValidMessage(t *testing.T) {
	v := newValidator(t)

	res := v.Validate(validMessage())

	require.True(t, res.IsOk())
	got, _ := res.Get()
	require.Equal(t, "42", got.Message.ID)
}

func TestValidator_AcceptsMinimalMessage(t *testing.T) {
	msg := validMessage()
	msg.Message.URL = ""
	msg.Message.Media = nil
	msg.GeoCoords = nil
	msg.Message.Text = ""

	require.NoError(t, newValidator(t).Check(msg))
}

func TestValidator_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *domain.NormalizedMessage)
	}{
		{name: "unknown media type", mutate: func(m *domain.NormalizedMessage) { m.Message.Media[0].Type = "sticker" }},
		{name: "empty media url", mutate: func(m *domain.NormalizedMessage) { m.Message.Media[0].URL = "" }},
		{name: "empty message id", mutate: func(m *domain.NormalizedMessage) { m.Message.ID = "" }},
		{name: "empty user id", mutate: func(m *domain.NormalizedMessage) { m.User.ID = "" }},
		{name: "empty channel id", mutate: func(m *domain.NormalizedMessage) { m.Source.Channel.ID = "" }},
		{name: "empty platform", mutate: func(m *domain.NormalizedMessage) { m.Source.Platform = "" }},
		{name: "geo not a point", mutate: func(m *domain.NormalizedMessage) { m.GeoCoords.Type = "Polygon" }},
		{name: "empty referenced post id", mutate: func(m *domain.NormalizedMessage) { m.Source.ReferencedPost = &domain.PostRef{} }},
	}

	v := newValidator(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validMessage().Clone()
			tt.mutate(&msg)

			res := v.Validate(msg)

			require.False(t, res.IsOk())
			require.Equal(t, domain.SkipSchemaInvalid, res.Reason())
			require.NotEmpty(t, res.Detail())
		})
	}
}

func TestValidator_RejectsMissingRequiredFields(t *testing.T) {
	v := newValidator(t)

	err := v.CheckJSON([]byte(`{"timestamp":"2026-03-01T10:00:00Z","user":{"id":"1","name":"x"},"source":{"platform":"telegram","channel":{"id":"2","name":"c"}}}`))
	require.Error(t, err)

	err = v.CheckJSON([]byte(`{"timestamp":"2026-03-01T10:00:00Z","message":{"id":"1","text":7},"user":{"id":"1","name":"x"},"source":{"platform":"telegram","channel":{"id":"2","name":"c"}}}`))
	require.Error(t, err)
}

func TestNewFromBytes_InvalidSchema(t *testing.T) {
	_, err := NewFromBytes([]byte(`{"type": 12}`))
	require.Error(t, err)

	_, err = NewFromBytes([]byte(`not json`))
	require.Error(t, err)
}
