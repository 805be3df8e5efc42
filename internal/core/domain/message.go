package domain

import (
	"time"
)

// MediaType is the normalized media kind stored with a message.
type MediaType string

// Media type constants.
const (
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// MediaElement is a resolved, durable media URL.
type MediaElement struct {
	ID   string    `json:"id"`
	Type MediaType `json:"type"`
	URL  string    `json:"url"`
}

// MessageBody is the message part of a normalized record.
type MessageBody struct {
	ID    string         `json:"id"`
	Text  string         `json:"text"`
	URL   string         `json:"url,omitempty"`
	Media []MediaElement `json:"media,omitempty"`
}

// User identifies the author of a normalized record.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChannelInfo identifies the channel a record was posted in.
type ChannelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PostRef references the post a message replies to.
type PostRef struct {
	ID string `json:"id"`
}

// Source describes where a record came from.
type Source struct {
	Platform       string      `json:"platform"`
	AccountID      string      `json:"account_id"`
	Channel        ChannelInfo `json:"channel"`
	ReferencedPost *PostRef    `json:"referenced_post,omitempty"`
}

// GeoCoords is a GeoJSON point; Coordinates are [lon, lat].
type GeoCoords struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// GeoPointType is the only GeoJSON type the connector emits.
const GeoPointType = "Point"

// NewGeoPoint builds a GeoJSON point from latitude and longitude.
func NewGeoPoint(lat, lon float64) *GeoCoords {
	return &GeoCoords{Type: GeoPointType, Coordinates: [2]float64{lon, lat}}
}

// NormalizedMessage is the canonical record produced by the normalizer.
// It is built once and only changed afterwards by the gluer's merge step.
type NormalizedMessage struct {
	Timestamp time.Time   `json:"timestamp"`
	Message   MessageBody `json:"message"`
	User      User        `json:"user"`
	Source    Source      `json:"source"`
	GeoCoords *GeoCoords  `json:"geo_coords,omitempty"`
}

// ThreadKey groups messages for gluing.
type ThreadKey struct {
	UserID    string
	ChannelID string
	PostID    string
}

// ThreadKey returns the (user, channel, reply-target) tuple of the message.
func (m NormalizedMessage) ThreadKey() ThreadKey {
	key := ThreadKey{UserID: m.User.ID, ChannelID: m.Source.Channel.ID}
	if m.Source.ReferencedPost != nil {
		key.PostID = m.Source.ReferencedPost.ID
	}

	return key
}

// Clone returns a deep copy so merges never alias another record's slices.
func (m NormalizedMessage) Clone() NormalizedMessage {
	out := m

	if m.Message.Media != nil {
		out.Message.Media = append([]MediaElement(nil), m.Message.Media...)
	}

	if m.Source.ReferencedPost != nil {
		ref := *m.Source.ReferencedPost
		out.Source.ReferencedPost = &ref
	}

	if m.GeoCoords != nil {
		geo := *m.GeoCoords
		out.GeoCoords = &geo
	}

	return out
}
