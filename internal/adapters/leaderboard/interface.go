package leaderboard

import "context"

type Leaderboard interface {
	// RemovePlayer removes the player from every leaderboard: each mode,
	// each variant, the global board and the country board. The country
	// board is skipped when the country is unknown.
	RemovePlayer(ctx context.Context, playerID int64, country string) error
}
