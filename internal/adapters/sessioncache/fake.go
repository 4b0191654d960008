package sessioncache

import (
	"context"
	"sync"
	"time"
)

// FakeSessionCache is an in-memory implementation for tests. TTLs are
// ignored; entries live until deleted.
type FakeSessionCache struct {
	mutex    sync.Mutex
	ids      map[string]int64
	sessions map[int64]map[string]bool

	// PendingRenameDeletes records player ids passed to DeletePendingRename.
	PendingRenameDeletes []int64
	// PublishedSanctions records player ids passed to PublishSanction.
	PublishedSanctions []int64
}

func NewFakeSessionCache() *FakeSessionCache {
	return &FakeSessionCache{
		ids:      make(map[string]int64),
		sessions: make(map[int64]map[string]bool),
	}
}

func (f *FakeSessionCache) GetID(ctx context.Context, safeName string) (int64, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	playerID, ok := f.ids[safeName]
	return playerID, ok, nil
}

func (f *FakeSessionCache) SetID(ctx context.Context, safeName string, playerID int64, ttl time.Duration) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.ids[safeName] = playerID
	return nil
}

func (f *FakeSessionCache) DeleteID(ctx context.Context, safeName string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	delete(f.ids, safeName)
	return nil
}

func (f *FakeSessionCache) AddSession(ctx context.Context, playerID int64, origin string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.sessions[playerID] == nil {
		f.sessions[playerID] = make(map[string]bool)
	}
	f.sessions[playerID][origin] = true
	return nil
}

func (f *FakeSessionCache) RemoveSession(ctx context.Context, playerID int64, origin string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	delete(f.sessions[playerID], origin)
	return nil
}

func (f *FakeSessionCache) HasSession(ctx context.Context, playerID int64, origin string) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.sessions[playerID][origin], nil
}

func (f *FakeSessionCache) HasAnySession(ctx context.Context, playerID int64) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return len(f.sessions[playerID]) > 0, nil
}

func (f *FakeSessionCache) DeletePendingRename(ctx context.Context, playerID int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.PendingRenameDeletes = append(f.PendingRenameDeletes, playerID)
	return nil
}

func (f *FakeSessionCache) PublishSanction(ctx context.Context, playerID int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.PublishedSanctions = append(f.PublishedSanctions, playerID)
	return nil
}
