package identity

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/lumen-gg/standing/internal/adapters/cache"
	"github.com/lumen-gg/standing/internal/adapters/playerrepository"
	"github.com/lumen-gg/standing/internal/adapters/sessioncache"
	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/reporting"
	"github.com/lumen-gg/standing/internal/strutils"
)

const maxUsernameLength = 30

// Service resolves usernames to ids and tracks live sessions. Both caches
// are strictly optimizations: every read is re-derivable from the relational
// store.
type Service struct {
	players  playerrepository.PlayerRepository
	sessions sessioncache.SessionCache
	idCache  cache.Cache[int64]
	idTTL    time.Duration
}

func NewService(
	players playerrepository.PlayerRepository,
	sessions sessioncache.SessionCache,
	idCache cache.Cache[int64],
	idTTL time.Duration,
) *Service {
	return &Service{
		players:  players,
		sessions: sessions,
		idCache:  idCache,
		idTTL:    idTTL,
	}
}

// ResolveID maps a display or normalized name to a player id, going through
// the in-process cache, then the shared cache, then the store.
func (s *Service) ResolveID(ctx context.Context, name string) (int64, error) {
	safeName := strutils.NormalizeUsername(name)

	if playerID, ok := s.idCache.Get(safeName); ok {
		return playerID, nil
	}

	playerID, ok, err := s.sessions.GetID(ctx, safeName)
	if err != nil {
		// The shared cache being down must not break resolution
		reporting.Report(ctx, err)
	} else if ok {
		s.idCache.Set(safeName, playerID)
		return playerID, nil
	}

	playerID, err = s.players.GetIDBySafeName(ctx, safeName)
	if err != nil {
		return 0, err
	}

	if err := s.sessions.SetID(ctx, safeName, playerID, s.idTTL); err != nil {
		reporting.Report(ctx, err)
	}
	s.idCache.Set(safeName, playerID)

	return playerID, nil
}

// CheckLogin verifies a credential for the player. A live session from the
// same origin is trusted for its lifetime and short-circuits the credential
// compare.
func (s *Service) CheckLogin(ctx context.Context, playerID int64, credential, origin string) (bool, error) {
	hasSession, err := s.sessions.HasSession(ctx, playerID, origin)
	if err != nil {
		reporting.Report(ctx, err)
	} else if hasSession {
		return true, nil
	}

	hash, err := s.players.GetCredentialHash(ctx, playerID)
	if err != nil {
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// SaveSession flags a live session for (player, origin). Sessions are
// additive per origin.
func (s *Service) SaveSession(ctx context.Context, playerID int64, origin string) error {
	return s.sessions.AddSession(ctx, playerID, origin)
}

// DeleteSession clears the session flag for (player, origin). Other origins
// keep their sessions.
func (s *Service) DeleteSession(ctx context.Context, playerID int64, origin string) error {
	return s.sessions.RemoveSession(ctx, playerID, origin)
}

// ChangeUsername renames the player, enforcing the normalization rules, and
// invalidates the cached lookup for the old name.
func (s *Service) ChangeUsername(ctx context.Context, playerID int64, newUsername string) error {
	if strutils.MixesSpacesAndUnderscores(newUsername) {
		return domain.ErrInvalidUsername
	}
	if utf8.RuneCountInString(newUsername) > maxUsernameLength {
		return domain.ErrInvalidUsername
	}

	safeName := strutils.NormalizeUsername(newUsername)

	existingID, err := s.players.GetIDBySafeName(ctx, safeName)
	if err != nil && !errors.Is(err, domain.ErrPlayerNotFound) {
		return err
	}
	if err == nil && existingID != playerID {
		return domain.ErrUsernameTaken
	}

	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return err
	}
	oldSafeName := player.SafeName

	if err := s.players.UpdateUsername(ctx, playerID, newUsername, safeName); err != nil {
		return err
	}

	// Drop every cached trace of the old name
	s.idCache.Delete(oldSafeName)
	if err := s.sessions.DeleteID(ctx, oldSafeName); err != nil {
		reporting.Report(ctx, err)
	}
	if err := s.sessions.DeletePendingRename(ctx, playerID); err != nil {
		reporting.Report(ctx, err)
	}

	logging.FromContext(ctx).Info("Changed username", "playerId", playerID, "oldSafeName", oldSafeName, "newSafeName", safeName)

	return nil
}

// GetUsername returns the player's display name.
func (s *Service) GetUsername(ctx context.Context, playerID int64) (string, error) {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return "", err
	}
	return player.Username, nil
}

// Exists reports whether the player id has an identity record.
func (s *Service) Exists(ctx context.Context, playerID int64) (bool, error) {
	return s.players.Exists(ctx, playerID)
}

// GetDonorExpiry returns when the player's donor perks run out. The zero
// epoch means no donor status.
func (s *Service) GetDonorExpiry(ctx context.Context, playerID int64) (time.Time, error) {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return time.Time{}, err
	}
	return player.DonorExpiry, nil
}

// IsSupporter reports whether the player has an active donor or subscriber
// standing.
func (s *Service) IsSupporter(ctx context.Context, playerID int64) (bool, error) {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return false, err
	}
	return player.Subscriber || player.DonorExpiry.After(time.Now()), nil
}
