package domain

import "time"

// FeedRow is one message_feed row referencing a unique_messages id.
type FeedRow struct {
	Timestamp        time.Time
	PlatformName     string
	PlatformUserID   string
	PlatformUserName string
	MessageID        string
	MessageURL       string
	SourceAccountID  string
	ChannelName      string
	ChannelID        string
	PlatformSpecific []byte
	ContentID        int64
}

// FailedRow is a message that could not be mapped to a feed row.
type FailedRow struct {
	Message NormalizedMessage
	Reason  string
}

// PlatformSpecific is the JSON stored in message_feed.platform_specific.
// Media and geo live here because the feed table has no columns for them.
type PlatformSpecific struct {
	Media          []MediaElement `json:"media,omitempty"`
	GeoCoords      *GeoCoords     `json:"geo_coords,omitempty"`
	ReferencedPost *PostRef       `json:"referenced_post,omitempty"`
}

// PlatformSpecificOf extracts the platform-specific part of a message.
func PlatformSpecificOf(m NormalizedMessage) PlatformSpecific {
	return PlatformSpecific{
		Media:          m.Message.Media,
		GeoCoords:      m.GeoCoords,
		ReferencedPost: m.Source.ReferencedPost,
	}
}
