package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumen-gg/standing/internal/adapters/leaderboard"
	"github.com/lumen-gg/standing/internal/adapters/notifier"
	"github.com/lumen-gg/standing/internal/adapters/playerrepository"
	"github.com/lumen-gg/standing/internal/adapters/sanctionrepository"
	"github.com/lumen-gg/standing/internal/adapters/sessioncache"
	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/reporting"
)

// Service is the authority for ban / restrict / silence transitions. Every
// transition appends an audit entry before mutating any flag, so a failed
// audit write never leaves a flag silently changed.
type Service struct {
	players     playerrepository.PlayerRepository
	sanctions   sanctionrepository.SanctionRepository
	leaderboard leaderboard.Leaderboard
	sessions    sessioncache.SessionCache
	notifier    notifier.Notifier
}

func NewService(
	players playerrepository.PlayerRepository,
	sanctions sanctionrepository.SanctionRepository,
	lb leaderboard.Leaderboard,
	sessions sessioncache.SessionCache,
	n notifier.Notifier,
) *Service {
	return &Service{
		players:     players,
		sanctions:   sanctions,
		leaderboard: lb,
		sessions:    sessions,
		notifier:    n,
	}
}

func (s *Service) username(ctx context.Context, playerID int64) string {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return fmt.Sprintf("#%d", playerID)
	}
	return player.Username
}

// broadcast tells the live-session layer about a sanction change.
// Best-effort: a missed broadcast only delays enforcement until the next
// login.
func (s *Service) broadcast(ctx context.Context, playerID int64) {
	if err := s.sessions.PublishSanction(ctx, playerID); err != nil {
		reporting.Report(ctx, err)
	}
}

// Ban moves the player to the banned state, delists them everywhere and
// broadcasts the sanction.
func (s *Service) Ban(ctx context.Context, playerID, actorID int64, reason string) error {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return err
	}

	err = s.sanctions.Append(ctx, &domain.SanctionEvent{
		PlayerID: playerID,
		Reason:   reason,
		Kind:     domain.SanctionRestriction,
		ActorID:  actorID,
	})
	if err != nil {
		return err
	}

	if err := s.players.SetBanned(ctx, playerID, true); err != nil {
		return err
	}

	if err := s.leaderboard.RemovePlayer(ctx, playerID, player.Country); err != nil {
		return err
	}

	s.broadcast(ctx, playerID)
	s.notifier.Notify(ctx, notifier.ChannelCM, fmt.Sprintf(
		"**%s** (%d) has been banned by %s: %s",
		player.Username, playerID, s.username(ctx, actorID), reason,
	))
	logging.FromContext(ctx).Info("Banned player", "playerId", playerID, "actorId", actorID)

	return nil
}

// Unban returns a banned player to the normal state.
func (s *Service) Unban(ctx context.Context, playerID, actorID int64, reason string) error {
	err := s.sanctions.Append(ctx, &domain.SanctionEvent{
		PlayerID: playerID,
		Reason:   reason,
		Kind:     domain.SanctionRestriction,
		ActorID:  actorID,
	})
	if err != nil {
		return err
	}

	if err := s.players.SetBanned(ctx, playerID, false); err != nil {
		return err
	}

	s.broadcast(ctx, playerID)
	logging.FromContext(ctx).Info("Unbanned player", "playerId", playerID, "actorId", actorID)

	return nil
}

// Restrict hides the player from public visibility without blocking login.
// Restricting an already-restricted player is a no-op.
func (s *Service) Restrict(ctx context.Context, playerID, actorID int64, reason string) error {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return err
	}
	if player.IsRestricted() {
		return nil
	}

	err = s.sanctions.Append(ctx, &domain.SanctionEvent{
		PlayerID: playerID,
		Reason:   reason,
		Kind:     domain.SanctionRestriction,
		ActorID:  actorID,
	})
	if err != nil {
		return err
	}

	if err := s.players.SetWarnings(ctx, playerID, 1); err != nil {
		return err
	}

	if err := s.leaderboard.RemovePlayer(ctx, playerID, player.Country); err != nil {
		return err
	}

	s.broadcast(ctx, playerID)
	s.notifier.Notify(ctx, notifier.ChannelCM, fmt.Sprintf(
		"**%s** (%d) has been restricted by %s: %s",
		player.Username, playerID, s.username(ctx, actorID), reason,
	))
	logging.FromContext(ctx).Info("Restricted player", "playerId", playerID, "actorId", actorID)

	return nil
}

// Unrestrict clears the warning flag and returns the player to the normal
// state.
func (s *Service) Unrestrict(ctx context.Context, playerID, actorID int64, reason string) error {
	err := s.sanctions.Append(ctx, &domain.SanctionEvent{
		PlayerID: playerID,
		Reason:   reason,
		Kind:     domain.SanctionRestriction,
		ActorID:  actorID,
	})
	if err != nil {
		return err
	}

	if err := s.players.SetWarnings(ctx, playerID, 0); err != nil {
		return err
	}

	s.broadcast(ctx, playerID)
	logging.FromContext(ctx).Info("Unrestricted player", "playerId", playerID, "actorId", actorID)

	return nil
}

// Silence imposes a communication restriction for the given duration.
// seconds == 0 lifts the most recent silence early by zeroing its duration;
// lifting when no silence exists is a safe no-op.
func (s *Service) Silence(ctx context.Context, playerID, actorID, seconds int64, reason string) error {
	if seconds == 0 {
		if err := s.sanctions.ZeroLatestSilence(ctx, playerID); err != nil {
			return err
		}
		s.broadcast(ctx, playerID)
		return nil
	}

	err := s.sanctions.Append(ctx, &domain.SanctionEvent{
		PlayerID: playerID,
		Reason:   reason,
		Kind:     domain.SanctionSilence,
		Period:   seconds,
		ActorID:  actorID,
	})
	if err != nil {
		return err
	}

	s.broadcast(ctx, playerID)
	logging.FromContext(ctx).Info("Silenced player", "playerId", playerID, "actorId", actorID, "seconds", seconds)

	return nil
}

// SilenceEnd derives the end of the player's current silence from the audit
// log. Players with no silence entry get the epoch, meaning not silenced.
// This is recomputed on every check, never stored.
func (s *Service) SilenceEnd(ctx context.Context, playerID int64) (time.Time, error) {
	event, err := s.sanctions.LatestSilence(ctx, playerID)
	if errors.Is(err, domain.ErrSilenceNotFound) {
		return time.Unix(0, 0).UTC(), nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return event.SilenceEnd(), nil
}

// IsSilenced reports whether the player's current silence is still running.
func (s *Service) IsSilenced(ctx context.Context, playerID int64) (bool, error) {
	end, err := s.SilenceEnd(ctx, playerID)
	if err != nil {
		return false, err
	}
	return end.After(time.Now()), nil
}

// AppendNote writes a plain audit note without changing any state.
func (s *Service) AppendNote(ctx context.Context, playerID, actorID int64, note string) error {
	return s.sanctions.Append(ctx, &domain.SanctionEvent{
		PlayerID: playerID,
		Reason:   note,
		Kind:     domain.SanctionNote,
		ActorID:  actorID,
	})
}

// State returns the player's current sanction state.
func (s *Service) State(ctx context.Context, playerID int64) (domain.SanctionState, error) {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return domain.StateNormal, err
	}
	return player.State(), nil
}

// IsAllowed reports whether the player is neither restricted nor banned.
func (s *Service) IsAllowed(ctx context.Context, playerID int64) (bool, error) {
	state, err := s.State(ctx, playerID)
	if err != nil {
		return false, err
	}
	return state == domain.StateNormal, nil
}

// IsRestricted reports whether the player is restricted (but not banned).
func (s *Service) IsRestricted(ctx context.Context, playerID int64) (bool, error) {
	state, err := s.State(ctx, playerID)
	if err != nil {
		return false, err
	}
	return state == domain.StateRestricted, nil
}

// IsBanned reports whether the player is banned.
func (s *Service) IsBanned(ctx context.Context, playerID int64) (bool, error) {
	state, err := s.State(ctx, playerID)
	if err != nil {
		return false, err
	}
	return state == domain.StateBanned, nil
}
