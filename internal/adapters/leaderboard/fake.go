package leaderboard

import (
	"context"
	"sync"
)

// FakeLeaderboard records removals for tests.
type FakeLeaderboard struct {
	mutex sync.Mutex

	// Removed maps player id to the countries passed for removal.
	Removed map[int64][]string
	// Fail makes RemovePlayer return this error.
	Fail error
}

func NewFakeLeaderboard() *FakeLeaderboard {
	return &FakeLeaderboard{Removed: make(map[int64][]string)}
}

func (f *FakeLeaderboard) RemovePlayer(ctx context.Context, playerID int64, country string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.Fail != nil {
		return f.Fail
	}
	f.Removed[playerID] = append(f.Removed[playerID], country)
	return nil
}
