package leaderboard

import (
	"fmt"
	"strings"

	"github.com/lumen-gg/standing/internal/domain"
)

const keyPrefix = "standing"

// leaderboardKey returns the sorted-set key for a (mode, variant) board.
// country is empty for the global board.
func leaderboardKey(mode domain.Mode, variant domain.Variant, country string) string {
	key := fmt.Sprintf("%s:leaderboard:%s", keyPrefix, mode)
	if country != "" {
		key += ":" + strings.ToLower(country)
	}
	return key + variant.KeySuffix()
}
