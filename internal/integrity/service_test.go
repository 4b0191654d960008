package integrity_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-gg/standing/internal/adapters/hardwarerepository"
	"github.com/lumen-gg/standing/internal/adapters/leaderboard"
	"github.com/lumen-gg/standing/internal/adapters/notifier"
	"github.com/lumen-gg/standing/internal/adapters/playerrepository"
	"github.com/lumen-gg/standing/internal/adapters/sanctionrepository"
	"github.com/lumen-gg/standing/internal/adapters/sessioncache"
	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/integrity"
	"github.com/lumen-gg/standing/internal/moderation"
)

const (
	virtualizedMACHashSet = "b4ec3c4334a0249dae95c284ec5983df"
	virtualizedDiskID     = "ffae06fb022871fe9beb58b005c5e21d"
)

type fixture struct {
	service     *integrity.Service
	players     *playerrepository.FakePlayerRepository
	hardware    *hardwarerepository.FakeHardwareRepository
	sanctions   *sanctionrepository.FakeSanctionRepository
	leaderboard *leaderboard.FakeLeaderboard
	notifier    *notifier.FakeNotifier
}

func newFixture(t *testing.T, players ...*domain.Player) *fixture {
	t.Helper()

	f := &fixture{
		players:     playerrepository.NewFakePlayerRepository(players...),
		hardware:    hardwarerepository.NewFakeHardwareRepository(),
		sanctions:   sanctionrepository.NewFakeSanctionRepository(),
		leaderboard: leaderboard.NewFakeLeaderboard(),
		notifier:    notifier.NewFakeNotifier(),
	}
	for _, player := range players {
		f.hardware.Usernames[player.ID] = player.Username
		if player.State() != domain.StateNormal {
			f.hardware.Sanctioned[player.ID] = true
		}
	}

	moderator := moderation.NewService(
		f.players, f.sanctions, f.leaderboard, sessioncache.NewFakeSessionCache(), f.notifier,
	)
	f.service = integrity.NewService(f.players, f.hardware, moderator, f.notifier, integrity.Policy{
		VirtualizedMACHashSet: virtualizedMACHashSet,
		VirtualizedDiskID:     virtualizedDiskID,
		MultiaccountThreshold: 0.10,
	})
	return f
}

func fingerprint(suffix string) domain.Fingerprint {
	return domain.Fingerprint{
		ClientVersion: "b20260901",
		RawMACs:       "aa.bb.cc",
		MACHashSet:    "mac-" + suffix,
		UniqueID:      "uid-" + suffix,
		DiskID:        "disk-" + suffix,
	}
}

func TestLogHardwareRejectsIncompleteFingerprint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	f := newFixture(t, player)

	fp := fingerprint("a")
	fp.DiskID = ""

	err := f.service.LogHardware(ctx, 1001, fp)
	assert.ErrorIs(t, err, domain.ErrIncompleteFingerprint)

	// No occurrence upsert happened
	count, countErr := f.hardware.CountLogs(ctx, 1001)
	require.NoError(t, countErr)
	assert.Equal(t, int64(0), count)

	assert.Len(t, f.notifier.Messages[notifier.ChannelBunker], 1)
}

func TestLogHardwareUpsertsOccurrences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	f := newFixture(t, player)

	fp := fingerprint("a")
	require.NoError(t, f.service.LogHardware(ctx, 1001, fp))
	require.NoError(t, f.service.LogHardware(ctx, 1001, fp))

	assert.Equal(t, int64(2), f.hardware.Occurrences(1001, fp))
}

func TestLogHardwareAutoRestrictsOnSanctionedMatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", Country: "NO"}
	banned := &domain.Player{ID: 2002, Username: "Bad Guy", SafeName: "bad_guy", Banned: true}
	f := newFixture(t, player, banned)

	fp := fingerprint("shared")
	f.hardware.Seed(2002, fp, 5, false)

	// Login is never denied for a fingerprint collision
	require.NoError(t, f.service.LogHardware(ctx, 1001, fp))

	restricted, err := f.players.GetByID(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, restricted.IsRestricted())

	// Audit entry cites the matched sanctioned identity
	events := f.sanctions.Events()
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Reason, "Bad Guy")
	assert.Contains(t, events[0].Reason, "2002")
	assert.Equal(t, integrity.SystemActorID, events[0].ActorID)

	assert.NotEmpty(t, f.leaderboard.Removed[1001])
	assert.NotEmpty(t, f.notifier.Messages[notifier.ChannelCM])

	// The occurrence upsert still happened
	assert.Equal(t, int64(1), f.hardware.Occurrences(1001, fp))
}

func TestLogHardwareBelowOccurrenceThreshold(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	banned := &domain.Player{ID: 2002, Username: "Bad Guy", SafeName: "bad_guy", Banned: true}
	f := newFixture(t, player, banned)

	fp := fingerprint("shared")
	f.hardware.Seed(2002, fp, 1, false)

	// 11 unrelated fingerprints of history: 1/11 < 10%
	for i := 0; i < 11; i++ {
		f.hardware.Seed(1001, fingerprint(fmt.Sprintf("own-%d", i)), 1, false)
	}

	require.NoError(t, f.service.LogHardware(ctx, 1001, fp))

	current, err := f.players.GetByID(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, current.IsRestricted())
	assert.Empty(t, f.sanctions.Events())
}

func TestLogHardwareSkipsScanForRestrictedPlayer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", Warnings: 1}
	banned := &domain.Player{ID: 2002, Username: "Bad Guy", SafeName: "bad_guy", Banned: true}
	f := newFixture(t, player, banned)

	fp := fingerprint("shared")
	f.hardware.Seed(2002, fp, 5, false)

	require.NoError(t, f.service.LogHardware(ctx, 1001, fp))

	// No scan ran: no audit entries, but the upsert still happened
	assert.Empty(t, f.sanctions.Events())
	assert.Equal(t, int64(1), f.hardware.Occurrences(1001, fp))
}

func TestLogHardwareRelaxedMatchForVirtualizedEnvironment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	banned := &domain.Player{ID: 2002, Username: "Bad Guy", SafeName: "bad_guy", Banned: true}
	f := newFixture(t, player, banned)

	// The banned account shares only the unique ID
	bannedFp := fingerprint("other")
	bannedFp.UniqueID = "uid-shared"
	f.hardware.Seed(2002, bannedFp, 5, false)

	// A strict fingerprint does not match on unique ID alone
	strictFp := fingerprint("current")
	strictFp.UniqueID = "uid-shared"
	require.NoError(t, f.service.LogHardware(ctx, 1001, strictFp))

	current, err := f.players.GetByID(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, current.IsRestricted())

	// The virtualized sentinel switches to unique-ID-only matching
	relaxedFp := strictFp
	relaxedFp.MACHashSet = virtualizedMACHashSet
	require.NoError(t, f.service.LogHardware(ctx, 1001, relaxedFp))

	current, err = f.players.GetByID(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, current.IsRestricted())
}

func TestVerifyUserSuccessClearsPendingFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", PendingVerification: true}
	f := newFixture(t, player)

	fp := fingerprint("a")
	require.NoError(t, f.service.VerifyUser(ctx, 1001, fp))

	current, err := f.players.GetByID(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, current.PendingVerification)

	verified, err := f.service.HasVerifiedHardware(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, verified)

	// Re-verifying an already-cleared account is a safe no-op
	require.NoError(t, f.service.VerifyUser(ctx, 1001, fp))
}

func TestVerifyUserIncompleteFingerprint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", PendingVerification: true}
	f := newFixture(t, player)

	fp := fingerprint("a")
	fp.UniqueID = ""

	err := f.service.VerifyUser(ctx, 1001, fp)
	assert.ErrorIs(t, err, domain.ErrIncompleteFingerprint)

	current, getErr := f.players.GetByID(ctx, 1001)
	require.NoError(t, getErr)
	assert.True(t, current.PendingVerification)
}

func TestVerifyUserMultiaccountBansNewAndRestrictsOriginal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	newcomer := &domain.Player{ID: 3003, Username: "New Guy", SafeName: "new_guy", Country: "NO", PendingVerification: true}
	original := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy", Country: "NO"}
	f := newFixture(t, newcomer, original)

	fp := fingerprint("shared")
	f.hardware.Seed(1001, fp, 3, true)

	err := f.service.VerifyUser(ctx, 3003, fp)
	assert.ErrorIs(t, err, domain.ErrMultiaccount)

	// The newer account is banned, the original restricted
	got, getErr := f.players.GetByID(ctx, 3003)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StateBanned, got.State())

	got, getErr = f.players.GetByID(ctx, 1001)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StateRestricted, got.State())

	// Both delisted
	assert.NotEmpty(t, f.leaderboard.Removed[3003])
	assert.NotEmpty(t, f.leaderboard.Removed[1001])

	// Cross-referencing audit entries on both accounts
	newcomerEvents, err := f.sanctions.ListByPlayer(ctx, 3003, 10)
	require.NoError(t, err)
	require.NotEmpty(t, newcomerEvents)
	assert.Contains(t, newcomerEvents[len(newcomerEvents)-1].Reason, "Cool Guy")

	originalEvents, err := f.sanctions.ListByPlayer(ctx, 1001, 10)
	require.NoError(t, err)
	require.NotEmpty(t, originalEvents)
	assert.Contains(t, originalEvents[len(originalEvents)-1].Reason, "New Guy")
}
