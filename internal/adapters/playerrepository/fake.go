package playerrepository

import (
	"context"
	"sync"

	"github.com/lumen-gg/standing/internal/domain"
)

// FakePlayerRepository is an in-memory implementation for tests.
type FakePlayerRepository struct {
	mutex           sync.Mutex
	players         map[int64]*domain.Player
	credentialHash  map[int64]string
	UsernameHistory map[int64][]string
}

func NewFakePlayerRepository(players ...*domain.Player) *FakePlayerRepository {
	byID := make(map[int64]*domain.Player, len(players))
	for _, player := range players {
		copied := *player
		byID[player.ID] = &copied
	}
	return &FakePlayerRepository{
		players:         byID,
		credentialHash:  make(map[int64]string),
		UsernameHistory: make(map[int64][]string),
	}
}

func (f *FakePlayerRepository) SetCredentialHash(playerID int64, hash string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.credentialHash[playerID] = hash
}

func (f *FakePlayerRepository) GetByID(ctx context.Context, playerID int64) (*domain.Player, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	player, ok := f.players[playerID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	copied := *player
	return &copied, nil
}

func (f *FakePlayerRepository) GetIDBySafeName(ctx context.Context, safeName string) (int64, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for _, player := range f.players {
		if player.SafeName == safeName {
			return player.ID, nil
		}
	}
	return 0, domain.ErrPlayerNotFound
}

func (f *FakePlayerRepository) GetCredentialHash(ctx context.Context, playerID int64) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if _, ok := f.players[playerID]; !ok {
		return "", domain.ErrPlayerNotFound
	}
	return f.credentialHash[playerID], nil
}

func (f *FakePlayerRepository) Exists(ctx context.Context, playerID int64) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	_, ok := f.players[playerID]
	return ok, nil
}

func (f *FakePlayerRepository) SetBanned(ctx context.Context, playerID int64, banned bool) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	player, ok := f.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	player.Banned = banned
	return nil
}

func (f *FakePlayerRepository) SetWarnings(ctx context.Context, playerID int64, warnings int) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	player, ok := f.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	player.Warnings = warnings
	return nil
}

func (f *FakePlayerRepository) ClearPendingVerification(ctx context.Context, playerID int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	player, ok := f.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	player.PendingVerification = false
	return nil
}

func (f *FakePlayerRepository) UpdateUsername(ctx context.Context, playerID int64, username, safeName string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	player, ok := f.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	f.UsernameHistory[playerID] = append(f.UsernameHistory[playerID], player.Username)
	player.Username = username
	player.SafeName = safeName
	return nil
}

func (f *FakePlayerRepository) TouchLastVisit(ctx context.Context, playerID int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if _, ok := f.players[playerID]; !ok {
		return domain.ErrPlayerNotFound
	}
	return nil
}
