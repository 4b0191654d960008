package hardwarerepository

import (
	"context"

	"github.com/lumen-gg/standing/internal/domain"
)

type HardwareRepository interface {
	// Upsert records one login with this exact fingerprint tuple: insert at
	// occurrence count 1, increment on conflict.
	Upsert(ctx context.Context, playerID int64, fingerprint domain.Fingerprint) error

	// MarkActivated flags the fingerprint tuple as used for account
	// activation.
	MarkActivated(ctx context.Context, playerID int64, fingerprint domain.Fingerprint) error

	// SanctionedMatches returns restricted or banned players whose logged
	// fingerprints match. A relaxed match compares the unique ID only, a
	// strict match compares all three mandatory fields.
	SanctionedMatches(ctx context.Context, playerID int64, fingerprint domain.Fingerprint, relaxed bool) ([]domain.HardwareMatch, error)

	// FirstActivatedMatch returns the id of the first other player with an
	// activated fingerprint matching the predicate. found is false when
	// there is none.
	FirstActivatedMatch(ctx context.Context, playerID int64, fingerprint domain.Fingerprint, relaxed bool) (matchID int64, found bool, err error)

	// CountLogs returns the number of distinct fingerprint tuples logged
	// for the player.
	CountLogs(ctx context.Context, playerID int64) (int64, error)

	// HasActivated reports whether the player has any fingerprint flagged
	// as used for activation.
	HasActivated(ctx context.Context, playerID int64) (bool, error)
}
