package progression_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-gg/standing/internal/adapters/playerrepository"
	"github.com/lumen-gg/standing/internal/adapters/statsrepository"
	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/progression"
)

func newService(t *testing.T, players ...*domain.Player) (*progression.Service, *statsrepository.FakeStatsRepository) {
	t.Helper()

	playerRepo := playerrepository.NewFakePlayerRepository(players...)
	stats := statsrepository.NewFakeStatsRepository()
	for _, player := range players {
		stats.AddPlayer(player.ID, player.Country)
	}
	return progression.NewService(playerRepo, stats), stats
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestUpdateStatsPassedSubmission(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", Country: "NO"}
	service, _ := newService(t, player)

	err := service.UpdateStats(ctx, &domain.Score{
		PlayerID:         1001,
		Mode:             domain.ModeStandard,
		Passed:           true,
		TotalScoreDelta:  5_000_000,
		RankedScoreDelta: 4_800_000,
		Accuracy:         0.95,
		FullPlayTime:     120,
		Count300:         500,
		Count100:         20,
		Count50:          3,
		CountMiss:        1,
		Performance:      floatPtr(123.4),
	})
	require.NoError(t, err)

	record, err := service.GetUserStats(ctx, 1001, domain.ModeStandard)
	require.NoError(t, err)

	assert.Equal(t, int64(5_000_000), record.TotalScore)
	assert.Equal(t, int64(4_800_000), record.RankedScore)
	assert.Equal(t, int64(1), record.PlayCount)
	assert.Equal(t, int64(120), record.TotalSecondsPlayed)
	assert.Equal(t, int64(500), record.Count300)
	assert.Equal(t, int64(20), record.Count100)
	assert.Equal(t, int64(3), record.Count50)
	assert.Equal(t, int64(1), record.CountMiss)

	assert.Equal(t, progression.GetLevel(5_000_000), record.Level)
	assert.InDelta(t, 0.95, record.Accuracy, 1e-9)
	assert.Equal(t, progression.WeightedPerformance([]float64{123.4}), record.Performance)
	assert.Equal(t, int64(1), record.RankIndex)
}

func TestUpdateStatsFailedSubmissionLeavesRankedFieldsAlone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", Country: "NO"}
	service, _ := newService(t, player)

	require.NoError(t, service.UpdateStats(ctx, &domain.Score{
		PlayerID:         1001,
		Mode:             domain.ModeStandard,
		Passed:           true,
		TotalScoreDelta:  1_000_000,
		RankedScoreDelta: 900_000,
		Accuracy:         0.99,
		FullPlayTime:     60,
		Performance:      floatPtr(50),
	}))

	before, err := service.GetUserStats(ctx, 1001, domain.ModeStandard)
	require.NoError(t, err)

	playTime := int64(45)
	require.NoError(t, service.UpdateStats(ctx, &domain.Score{
		PlayerID:        1001,
		Mode:            domain.ModeStandard,
		Passed:          false,
		TotalScoreDelta: 500_000,
		Accuracy:        0.2,
		PlayTime:        &playTime,
		FullPlayTime:    120,
	}))

	after, err := service.GetUserStats(ctx, 1001, domain.ModeStandard)
	require.NoError(t, err)

	// Failed plays move the unranked accumulators
	assert.Equal(t, before.TotalScore+500_000, after.TotalScore)
	assert.Equal(t, before.PlayCount+1, after.PlayCount)
	assert.Equal(t, before.TotalSecondsPlayed+45, after.TotalSecondsPlayed)
	assert.Equal(t, progression.GetLevel(after.TotalScore), after.Level)

	// But never the ranked ones
	assert.Equal(t, before.RankedScore, after.RankedScore)
	assert.Equal(t, before.Accuracy, after.Accuracy)
	assert.Equal(t, before.Performance, after.Performance)
}

func TestUpdateStatsUnknownPlayerIsANoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, stats := newService(t)

	err := service.UpdateStats(ctx, &domain.Score{
		PlayerID:        9999,
		Mode:            domain.ModeStandard,
		Passed:          true,
		TotalScoreDelta: 1000,
	})
	require.NoError(t, err)

	// No dangling record was created
	_, err = stats.GetOrCreate(ctx, 9999, domain.ModeStandard)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestUpdateStatsRejectsInvalidMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, SafeName: "cool_guy", Country: "NO"}
	service, _ := newService(t, player)

	err := service.UpdateStats(ctx, &domain.Score{PlayerID: 1001, Mode: domain.Mode(7)})
	assert.Error(t, err)
}

func TestGetUserStatsCreatesZeroedRecordWithCountry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, SafeName: "cool_guy", Country: "DE"}
	service, _ := newService(t, player)

	record, err := service.GetUserStats(ctx, 1001, domain.ModeMania)
	require.NoError(t, err)

	assert.Equal(t, int64(1001), record.PlayerID)
	assert.Equal(t, domain.ModeMania, record.Mode)
	assert.Equal(t, "DE", record.Country)
	assert.Equal(t, int64(0), record.TotalScore)
	assert.Equal(t, 1, record.Level)
	assert.Equal(t, int64(1), record.RankIndex)
}

func TestAddReplayWatched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, SafeName: "cool_guy", Country: "NO"}
	service, _ := newService(t, player)

	require.NoError(t, service.AddReplayWatched(ctx, 1001, domain.ModeStandard))
	require.NoError(t, service.AddReplayWatched(ctx, 1001, domain.ModeStandard))

	record, err := service.GetUserStats(ctx, 1001, domain.ModeStandard)
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.ReplaysWatched)
}
