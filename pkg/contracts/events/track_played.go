package events

type TrackPlayed struct {
	RequestID string `json:"request_id"`
	ChannelID string `json:"channel_id"`
	PlayerID  string `json:"player_id"`
	Query     string `json:"query"`
	Premium   bool   `json:"premium"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
