package moderation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-gg/standing/internal/adapters/leaderboard"
	"github.com/lumen-gg/standing/internal/adapters/notifier"
	"github.com/lumen-gg/standing/internal/adapters/playerrepository"
	"github.com/lumen-gg/standing/internal/adapters/sanctionrepository"
	"github.com/lumen-gg/standing/internal/adapters/sessioncache"
	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/moderation"
)

type fixture struct {
	service     *moderation.Service
	players     *playerrepository.FakePlayerRepository
	sanctions   *sanctionrepository.FakeSanctionRepository
	leaderboard *leaderboard.FakeLeaderboard
	sessions    *sessioncache.FakeSessionCache
	notifier    *notifier.FakeNotifier
}

func newFixture(t *testing.T, players ...*domain.Player) *fixture {
	t.Helper()

	f := &fixture{
		players:     playerrepository.NewFakePlayerRepository(players...),
		sanctions:   sanctionrepository.NewFakeSanctionRepository(),
		leaderboard: leaderboard.NewFakeLeaderboard(),
		sessions:    sessioncache.NewFakeSessionCache(),
		notifier:    notifier.NewFakeNotifier(),
	}
	f.service = moderation.NewService(f.players, f.sanctions, f.leaderboard, f.sessions, f.notifier)
	return f
}

func TestBan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", Country: "NO"}
	f := newFixture(t, player)

	require.NoError(t, f.service.Ban(ctx, 1001, 1, "cheating"))

	banned, err := f.service.IsBanned(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, banned)

	// Delisted with the player's country so the fan-out covers the
	// country boards too
	assert.Equal(t, []string{"NO"}, f.leaderboard.Removed[1001])
	assert.Equal(t, []int64{1001}, f.sessions.PublishedSanctions)

	events := f.sanctions.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "cheating", events[0].Reason)
	assert.Equal(t, int64(1), events[0].ActorID)

	require.Len(t, f.notifier.Messages[notifier.ChannelCM], 1)
	assert.Contains(t, f.notifier.Messages[notifier.ChannelCM][0], "Cool Guy")
}

func TestUnban(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", Banned: true}
	f := newFixture(t, player)

	require.NoError(t, f.service.Unban(ctx, 1001, 1, "appeal accepted"))

	banned, err := f.service.IsBanned(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, banned)

	allowed, err := f.service.IsAllowed(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRestrictIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", Country: "NO"}
	f := newFixture(t, player)

	require.NoError(t, f.service.Restrict(ctx, 1001, 1, "multiaccount"))

	restricted, err := f.service.IsRestricted(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, restricted)
	require.Len(t, f.sanctions.Events(), 1)

	// Restricting again leaves no trace
	require.NoError(t, f.service.Restrict(ctx, 1001, 1, "multiaccount again"))

	assert.Len(t, f.sanctions.Events(), 1)
	assert.Len(t, f.leaderboard.Removed[1001], 1)
	assert.Len(t, f.sessions.PublishedSanctions, 1)
}

func TestUnrestrict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", Warnings: 1}
	f := newFixture(t, player)

	require.NoError(t, f.service.Unrestrict(ctx, 1001, 1, "cleared"))

	restricted, err := f.service.IsRestricted(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, restricted)
}

func TestFailedAuditWriteLeavesFlagsUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	f := newFixture(t, player)
	f.sanctions.FailAppend = errors.New("store down")

	require.Error(t, f.service.Ban(ctx, 1001, 1, "cheating"))

	banned, err := f.service.IsBanned(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, banned)
	assert.Empty(t, f.leaderboard.Removed)
	assert.Empty(t, f.sessions.PublishedSanctions)
}

func TestSilenceLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	f := newFixture(t, player)

	// No silence entry -> silence end is the epoch
	end, err := f.service.SilenceEnd(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, time.Unix(0, 0).UTC(), end)

	silenced, err := f.service.IsSilenced(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, silenced)

	// Lifting with no prior silence is a safe no-op
	require.NoError(t, f.service.Silence(ctx, 1001, 1, 0, ""))
	assert.Empty(t, f.sanctions.Events())

	require.NoError(t, f.service.Silence(ctx, 1001, 1, 3600, "spamming"))

	silenced, err = f.service.IsSilenced(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, silenced)

	end, err = f.service.SilenceEnd(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, end.After(time.Now()))

	// Early lift zeroes the stored duration of the latest entry
	require.NoError(t, f.service.Silence(ctx, 1001, 1, 0, ""))

	silenced, err = f.service.IsSilenced(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, silenced)

	// Silence never touches the type or warning flags
	allowed, err := f.service.IsAllowed(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAppendNote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	f := newFixture(t, player)

	require.NoError(t, f.service.AppendNote(ctx, 1001, 1, "talked to support"))

	events := f.sanctions.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.SanctionNote, events[0].Kind)
	assert.Equal(t, "talked to support", events[0].Reason)

	allowed, err := f.service.IsAllowed(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestBannedWinsOverRestricted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, SafeName: "cool_guy", Banned: true, Warnings: 1}
	f := newFixture(t, player)

	state, err := f.service.State(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, domain.StateBanned, state)

	restricted, err := f.service.IsRestricted(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, restricted)
}
