package integrity

import (
	"context"
	"fmt"

	"github.com/lumen-gg/standing/internal/adapters/hardwarerepository"
	"github.com/lumen-gg/standing/internal/adapters/notifier"
	"github.com/lumen-gg/standing/internal/adapters/playerrepository"
	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/logging"
)

// SystemActorID marks audit entries written by automated checks rather than
// a human operator.
const SystemActorID int64 = 999

// Moderator is the slice of the moderation service the integrity engine
// needs to apply its decisions.
type Moderator interface {
	Ban(ctx context.Context, playerID, actorID int64, reason string) error
	Restrict(ctx context.Context, playerID, actorID int64, reason string) error
	AppendNote(ctx context.Context, playerID, actorID int64, note string) error
	IsRestricted(ctx context.Context, playerID int64) (bool, error)
}

// Policy holds the configurable multiaccount-detection constants. The
// defaults mirror long-standing production values; changing them changes who
// gets flagged.
type Policy struct {
	// VirtualizedMACHashSet is the MAC hash set reported by clients running
	// in a virtualized or translated environment, where MAC addresses are
	// synthetic. It switches matching to the relaxed predicate.
	VirtualizedMACHashSet string
	// VirtualizedDiskID is the disk ID equivalent, consulted during
	// verification only.
	VirtualizedDiskID string
	// MultiaccountThreshold is the minimum share of a player's logins that
	// must collide with a sanctioned account before auto-restricting.
	MultiaccountThreshold float64
}

// Service records hardware fingerprints per login and decides whether the
// account behind them is a duplicate of a sanctioned one.
type Service struct {
	players   playerrepository.PlayerRepository
	hardware  hardwarerepository.HardwareRepository
	moderator Moderator
	notifier  notifier.Notifier
	policy    Policy
}

func NewService(
	players playerrepository.PlayerRepository,
	hardware hardwarerepository.HardwareRepository,
	moderator Moderator,
	n notifier.Notifier,
	policy Policy,
) *Service {
	return &Service{
		players:   players,
		hardware:  hardware,
		moderator: moderator,
		notifier:  n,
		policy:    policy,
	}
}

func (s *Service) username(ctx context.Context, playerID int64) string {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return fmt.Sprintf("#%d", playerID)
	}
	return player.Username
}

// LogHardware runs the per-login fingerprint check. It never denies the
// login itself: the worst outcome is a restriction applied to the account,
// which still authenticates with reduced privileges.
func (s *Service) LogHardware(ctx context.Context, playerID int64, fingerprint domain.Fingerprint) error {
	if !fingerprint.Complete() {
		logging.FromContext(ctx).Warn("Incomplete fingerprint in hardware check", "playerId", playerID)
		s.notifier.Notify(ctx, notifier.ChannelBunker, fmt.Sprintf(
			"Invalid hardware fingerprint for player %s (%d) in hardware check",
			s.username(ctx, playerID), playerID,
		))
		return domain.ErrIncompleteFingerprint
	}

	restricted, err := s.moderator.IsRestricted(ctx, playerID)
	if err != nil {
		return err
	}

	// Restricted accounts are neither signal sources nor re-flagged.
	if !restricted {
		if err := s.scanSanctionedMatches(ctx, playerID, fingerprint); err != nil {
			return err
		}
	}

	return s.hardware.Upsert(ctx, playerID, fingerprint)
}

func (s *Service) scanSanctionedMatches(ctx context.Context, playerID int64, fingerprint domain.Fingerprint) error {
	relaxed := fingerprint.MACHashSet == s.policy.VirtualizedMACHashSet

	matches, err := s.hardware.SanctionedMatches(ctx, playerID, fingerprint, relaxed)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	total, err := s.hardware.CountLogs(ctx, playerID)
	if err != nil {
		return err
	}

	for _, match := range matches {
		// A player with no fingerprint history yet matches with full
		// confidence.
		if total > 0 && float64(match.Occurrences)/float64(total) < s.policy.MultiaccountThreshold {
			continue
		}

		err := s.moderator.Restrict(ctx, playerID, SystemActorID, fmt.Sprintf(
			"Auto-restricted: logged in with hardware fingerprint (%s, %s, %s) shared with banned/restricted player %s (%d), possible multiaccount",
			fingerprint.MACHashSet, fingerprint.UniqueID, fingerprint.DiskID,
			match.Username, match.PlayerID,
		))
		if err != nil {
			return err
		}
		break
	}

	return nil
}

// VerifyUser is the one-time activation gate. Unlike the per-login check, a
// fingerprint match here bans the new account outright and restricts the
// original: verification is the last point where a duplicate is cheap to
// stop.
func (s *Service) VerifyUser(ctx context.Context, playerID int64, fingerprint domain.Fingerprint) error {
	if !fingerprint.Complete() {
		logging.FromContext(ctx).Warn("Incomplete fingerprint in account verification", "playerId", playerID)
		s.notifier.Notify(ctx, notifier.ChannelBunker, fmt.Sprintf(
			"Invalid hardware fingerprint for player %s (%d) while verifying the account",
			s.username(ctx, playerID), playerID,
		))
		return domain.ErrIncompleteFingerprint
	}

	relaxed := fingerprint.MACHashSet == s.policy.VirtualizedMACHashSet ||
		fingerprint.DiskID == s.policy.VirtualizedDiskID

	originalID, found, err := s.hardware.FirstActivatedMatch(ctx, playerID, fingerprint, relaxed)
	if err != nil {
		return err
	}

	if found {
		username := s.username(ctx, playerID)
		originalUsername := s.username(ctx, originalID)

		err := s.moderator.Ban(ctx, playerID, SystemActorID, fmt.Sprintf(
			"%s's multiaccount (%d), found hardware fingerprint match while verifying account (%s, %s, %s)",
			originalUsername, originalID,
			fingerprint.MACHashSet, fingerprint.UniqueID, fingerprint.DiskID,
		))
		if err != nil {
			return err
		}

		// Cross-reference the original even when the restriction below is
		// an idempotent no-op.
		err = s.moderator.AppendNote(ctx, originalID, SystemActorID, fmt.Sprintf(
			"Has created multiaccount %s (%d)", username, playerID,
		))
		if err != nil {
			return err
		}

		err = s.moderator.Restrict(ctx, originalID, SystemActorID, fmt.Sprintf(
			"Has created multiaccount %s (%d), which has been banned", username, playerID,
		))
		if err != nil {
			return err
		}

		return domain.ErrMultiaccount
	}

	if err := s.hardware.Upsert(ctx, playerID, fingerprint); err != nil {
		return err
	}
	if err := s.hardware.MarkActivated(ctx, playerID, fingerprint); err != nil {
		return err
	}

	// Idempotent: re-verifying an already-cleared account is a safe no-op.
	if err := s.players.ClearPendingVerification(ctx, playerID); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("Verified account", "playerId", playerID)

	return nil
}

// HasVerifiedHardware reports whether the player has completed hardware
// verification at least once.
func (s *Service) HasVerifiedHardware(ctx context.Context, playerID int64) (bool, error) {
	return s.hardware.HasActivated(ctx, playerID)
}
