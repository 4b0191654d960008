package strutils

import "strings"

// NormalizeUsername returns the "safe" form of a username: trimmed,
// lowercased, with spaces replaced by underscores. Safe names are the unique
// lookup key for players.
func NormalizeUsername(username string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(username)), " ", "_")
}

// MixesSpacesAndUnderscores reports whether a username contains both spaces
// and underscores. Such names are rejected on rename because their
// normalized form is ambiguous.
func MixesSpacesAndUnderscores(username string) bool {
	return strings.Contains(username, " ") && strings.Contains(username, "_")
}
