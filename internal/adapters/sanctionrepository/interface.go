package sanctionrepository

import (
	"context"

	"github.com/lumen-gg/standing/internal/domain"
)

type SanctionRepository interface {
	// Append writes an audit entry. The log is append-only: entries are
	// never rewritten, except for the early-lift zeroing of a silence.
	Append(ctx context.Context, event *domain.SanctionEvent) error

	// LatestSilence returns the most recent silence entry for the player,
	// or domain.ErrSilenceNotFound when none exists.
	LatestSilence(ctx context.Context, playerID int64) (*domain.SanctionEvent, error)

	// ZeroLatestSilence sets the duration of the most recent silence entry
	// to zero. A no-op when the player has no silence entry.
	ZeroLatestSilence(ctx context.Context, playerID int64) error

	// ListByPlayer returns the player's audit entries, newest first.
	ListByPlayer(ctx context.Context, playerID int64, limit int) ([]domain.SanctionEvent, error)
}
