package events

type BetPlaced struct {
	RoomID    string `json:"room_id"`
	ChannelID string `json:"channel_id"`
	PlayerID  string `json:"player_id"`
	Outcome   string `json:"outcome"`
	Amount    int64  `json:"amount"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
