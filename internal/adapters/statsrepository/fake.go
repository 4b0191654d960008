package statsrepository

import (
	"context"
	"sort"
	"sync"

	"github.com/lumen-gg/standing/internal/domain"
)

// FakeStatsRepository is an in-memory implementation for tests.
type FakeStatsRepository struct {
	mutex        sync.Mutex
	records      map[recordKey]*domain.ProgressionRecord
	scores       map[recordKey][]domain.Score
	knownPlayers map[int64]string
}

type recordKey struct {
	playerID int64
	mode     domain.Mode
}

func NewFakeStatsRepository() *FakeStatsRepository {
	return &FakeStatsRepository{
		records:      make(map[recordKey]*domain.ProgressionRecord),
		scores:       make(map[recordKey][]domain.Score),
		knownPlayers: make(map[int64]string),
	}
}

// AddPlayer registers a player and their country so records can be created.
func (f *FakeStatsRepository) AddPlayer(playerID int64, country string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.knownPlayers[playerID] = country
}

func (f *FakeStatsRepository) getOrCreateLocked(playerID int64, mode domain.Mode) (*domain.ProgressionRecord, error) {
	key := recordKey{playerID, mode}
	if record, ok := f.records[key]; ok {
		return record, nil
	}

	country, ok := f.knownPlayers[playerID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}

	record := &domain.ProgressionRecord{
		PlayerID: playerID,
		Mode:     mode,
		Country:  country,
		Level:    1,
	}
	f.records[key] = record
	return record, nil
}

func (f *FakeStatsRepository) GetOrCreate(ctx context.Context, playerID int64, mode domain.Mode) (*domain.ProgressionRecord, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	record, err := f.getOrCreateLocked(playerID, mode)
	if err != nil {
		return nil, err
	}
	copied := *record
	return &copied, nil
}

func (f *FakeStatsRepository) ApplyPlay(ctx context.Context, score *domain.Score) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	record, err := f.getOrCreateLocked(score.PlayerID, score.Mode)
	if err != nil {
		return err
	}

	record.TotalScore += score.TotalScoreDelta
	record.PlayCount++
	record.TotalSecondsPlayed += score.SecondsPlayed()
	if score.Passed {
		record.RankedScore += score.RankedScoreDelta
		record.AccuracyTotal += score.Accuracy
		record.AccuracyCount++
	}
	return nil
}

func (f *FakeStatsRepository) AddHits(ctx context.Context, playerID int64, mode domain.Mode, count300, count100, count50, countMiss int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	record, err := f.getOrCreateLocked(playerID, mode)
	if err != nil {
		return err
	}

	record.Count300 += count300
	record.Count100 += count100
	record.Count50 += count50
	record.CountMiss += countMiss
	return nil
}

func (f *FakeStatsRepository) RecordScore(ctx context.Context, score *domain.Score) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	key := recordKey{score.PlayerID, score.Mode}
	f.scores[key] = append(f.scores[key], *score)
	return nil
}

func (f *FakeStatsRepository) TopPerformances(ctx context.Context, playerID int64, mode domain.Mode, limit int) ([]float64, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	performances := []float64{}
	for _, score := range f.scores[recordKey{playerID, mode}] {
		if !score.Passed || score.Performance == nil {
			continue
		}
		performances = append(performances, *score.Performance)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(performances)))
	if len(performances) > limit {
		performances = performances[:limit]
	}
	return performances, nil
}

func (f *FakeStatsRepository) UpdateDerived(ctx context.Context, playerID int64, mode domain.Mode, level int, accuracy, performance float64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	record, err := f.getOrCreateLocked(playerID, mode)
	if err != nil {
		return err
	}

	record.Level = level
	record.Accuracy = accuracy
	record.Performance = performance
	return nil
}

func (f *FakeStatsRepository) SetRankIndex(ctx context.Context, playerID int64, mode domain.Mode, rankIndex int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	record, err := f.getOrCreateLocked(playerID, mode)
	if err != nil {
		return err
	}

	record.RankIndex = rankIndex
	return nil
}

func (f *FakeStatsRepository) CountBetter(ctx context.Context, mode domain.Mode, performance float64) (int64, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	var count int64
	for key, record := range f.records {
		if key.mode == mode && record.Performance > performance {
			count++
		}
	}
	return count, nil
}

func (f *FakeStatsRepository) IncrementReplaysWatched(ctx context.Context, playerID int64, mode domain.Mode) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	record, err := f.getOrCreateLocked(playerID, mode)
	if err != nil {
		return err
	}

	record.ReplaysWatched++
	return nil
}
