package statsrepository

import (
	"context"

	"github.com/lumen-gg/standing/internal/domain"
)

type StatsRepository interface {
	// GetOrCreate returns the progression record for (playerID, mode),
	// creating a zeroed record on first access.
	GetOrCreate(ctx context.Context, playerID int64, mode domain.Mode) (*domain.ProgressionRecord, error)

	// ApplyPlay folds a single play into the stored counters. Failed plays
	// only contribute to total score, play count and time played.
	ApplyPlay(ctx context.Context, score *domain.Score) error

	// AddHits adds the per-judgement hit counts of a play.
	AddHits(ctx context.Context, playerID int64, mode domain.Mode, count300, count100, count50, countMiss int64) error

	// RecordScore appends the play to the score log used for the weighted
	// performance aggregation.
	RecordScore(ctx context.Context, score *domain.Score) error

	// TopPerformances returns the performance ratings of the player's best
	// passed plays, best first, at most limit entries.
	TopPerformances(ctx context.Context, playerID int64, mode domain.Mode, limit int) ([]float64, error)

	// UpdateDerived stores the recomputed level, mean accuracy and weighted
	// performance for (playerID, mode).
	UpdateDerived(ctx context.Context, playerID int64, mode domain.Mode, level int, accuracy, performance float64) error

	SetRankIndex(ctx context.Context, playerID int64, mode domain.Mode, rankIndex int64) error

	// CountBetter returns how many players hold a strictly higher stored
	// performance for the mode.
	CountBetter(ctx context.Context, mode domain.Mode, performance float64) (int64, error)

	IncrementReplaysWatched(ctx context.Context, playerID int64, mode domain.Mode) error
}
