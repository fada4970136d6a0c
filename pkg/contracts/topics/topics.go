package topics

const (
	// Bets
	BetPlaced  = "chimp_bet_placed"
	BetSettled = "chimp_bet_settled"

	// Playback
	TrackPlayed = "chimp_track_played"
)
