package progression

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumen-gg/standing/internal/adapters/playerrepository"
	"github.com/lumen-gg/standing/internal/adapters/statsrepository"
	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/reporting"
)

// topScoresLimit is the number of best plays entering the weighted
// performance total.
const topScoresLimit = 500

// Service turns score submissions into persisted progression state. It is a
// leaf component: no side effects beyond the stores it is handed.
type Service struct {
	players playerrepository.PlayerRepository
	stats   statsrepository.StatsRepository
}

func NewService(players playerrepository.PlayerRepository, stats statsrepository.StatsRepository) *Service {
	return &Service{
		players: players,
		stats:   stats,
	}
}

// GetUserStats returns the progression record for (playerID, mode), creating
// it on first access, with the global rank index freshly derived. It also
// touches the player's latest-activity timestamp.
func (s *Service) GetUserStats(ctx context.Context, playerID int64, mode domain.Mode) (*domain.ProgressionRecord, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid mode %d", int(mode))
	}

	record, err := s.stats.GetOrCreate(ctx, playerID, mode)
	if err != nil {
		return nil, err
	}

	better, err := s.stats.CountBetter(ctx, mode, record.Performance)
	if err != nil {
		return nil, err
	}
	record.RankIndex = better + 1

	if err := s.stats.SetRankIndex(ctx, playerID, mode, record.RankIndex); err != nil {
		return nil, err
	}

	if err := s.players.TouchLastVisit(ctx, playerID); err != nil && !errors.Is(err, domain.ErrPlayerNotFound) {
		reporting.Report(ctx, err)
	}

	return record, nil
}

// UpdateStats folds a score submission into the player's progression record
// and recomputes the derived fields. Failed plays move total score, play
// count, time played and level only; ranked score, accuracy and performance
// change on passes alone.
func (s *Service) UpdateStats(ctx context.Context, score *domain.Score) error {
	if !score.Mode.Valid() {
		return fmt.Errorf("invalid mode %d", int(score.Mode))
	}

	exists, err := s.players.Exists(ctx, score.PlayerID)
	if err != nil {
		return err
	}
	if !exists {
		// A submission with no identity record must never create a
		// dangling update.
		logging.FromContext(ctx).Warn("Dropping score submission for unknown player", "playerId", score.PlayerID)
		return nil
	}

	if _, err := s.stats.GetOrCreate(ctx, score.PlayerID, score.Mode); err != nil {
		return err
	}

	if err := s.stats.ApplyPlay(ctx, score); err != nil {
		return err
	}
	if err := s.stats.AddHits(ctx, score.PlayerID, score.Mode, score.Count300, score.Count100, score.Count50, score.CountMiss); err != nil {
		return err
	}
	if err := s.stats.RecordScore(ctx, score); err != nil {
		return err
	}

	record, err := s.stats.GetOrCreate(ctx, score.PlayerID, score.Mode)
	if err != nil {
		return err
	}

	level := GetLevel(record.TotalScore)

	accuracy := record.Accuracy
	performance := record.Performance
	if score.Passed {
		accuracy = ComputeAccuracy(record.AccuracyTotal, record.AccuracyCount)

		topPerformances, err := s.stats.TopPerformances(ctx, score.PlayerID, score.Mode, topScoresLimit)
		if err != nil {
			return err
		}
		performance = WeightedPerformance(topPerformances)
	}

	if err := s.stats.UpdateDerived(ctx, score.PlayerID, score.Mode, level, accuracy, performance); err != nil {
		return err
	}

	if score.Passed {
		better, err := s.stats.CountBetter(ctx, score.Mode, performance)
		if err != nil {
			return err
		}
		if err := s.stats.SetRankIndex(ctx, score.PlayerID, score.Mode, better+1); err != nil {
			return err
		}
	}

	if err := s.players.TouchLastVisit(ctx, score.PlayerID); err != nil {
		reporting.Report(ctx, err)
	}

	return nil
}

// AddReplayWatched counts one replay view against the record's owner.
func (s *Service) AddReplayWatched(ctx context.Context, playerID int64, mode domain.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid mode %d", int(mode))
	}

	if _, err := s.stats.GetOrCreate(ctx, playerID, mode); err != nil {
		return err
	}

	return s.stats.IncrementReplaysWatched(ctx, playerID, mode)
}
