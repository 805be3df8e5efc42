package pipeline

// Log field constants
const (
	LogFieldRunID     = "run_id"
	LogFieldChannelID = "channel_id"
	LogFieldMsgID     = "msg_id"
	LogFieldReason    = "reason"
)
