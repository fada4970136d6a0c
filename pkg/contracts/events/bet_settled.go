package events

type BetSettled struct {
	RoomID    string      `json:"room_id"`
	ChannelID string      `json:"channel_id"`
	Outcome   string      `json:"outcome"`
	Winners   []BetPayout `json:"winners"`
	TsUnixMs  int64       `json:"ts_unix_ms"`
}

type BetPayout struct {
	PlayerID string `json:"player_id"`
	Amount   int64  `json:"amount"`
}
