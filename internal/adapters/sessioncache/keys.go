package sessioncache

import (
	"fmt"
	"strconv"
)

const keyPrefix = "standing"

// SanctionChannel carries the ids of sanctioned players to the live-session
// layer.
const SanctionChannel = keyPrefix + ":sanctions"

// idKey indexes normalized usernames to player ids.
func idKey(safeName string) string {
	return fmt.Sprintf("%s:userid:%s", keyPrefix, safeName)
}

// sessionsKey holds the set of origin addresses with a live session.
func sessionsKey(playerID int64) string {
	return fmt.Sprintf("%s:sessions:%s", keyPrefix, strconv.FormatInt(playerID, 10))
}

// pendingRenameKey marks an in-flight username change.
func pendingRenameKey(playerID int64) string {
	return fmt.Sprintf("%s:rename_pending:%s", keyPrefix, strconv.FormatInt(playerID, 10))
}
