package hardwarerepository

import (
	"context"
	"sync"

	"github.com/lumen-gg/standing/internal/domain"
)

// FakeHardwareRepository is an in-memory implementation for tests.
type FakeHardwareRepository struct {
	mutex   sync.Mutex
	entries []*fakeEntry

	// Sanctioned marks players whose matches count as sanctioned.
	Sanctioned map[int64]bool
	// Usernames backs the username column of match rows.
	Usernames map[int64]string
}

type fakeEntry struct {
	playerID    int64
	fingerprint domain.Fingerprint
	occurrences int64
	activated   bool
}

func NewFakeHardwareRepository() *FakeHardwareRepository {
	return &FakeHardwareRepository{
		Sanctioned: make(map[int64]bool),
		Usernames:  make(map[int64]string),
	}
}

func (f *FakeHardwareRepository) find(playerID int64, fingerprint domain.Fingerprint) *fakeEntry {
	for _, entry := range f.entries {
		if entry.playerID == playerID &&
			entry.fingerprint.MACHashSet == fingerprint.MACHashSet &&
			entry.fingerprint.UniqueID == fingerprint.UniqueID &&
			entry.fingerprint.DiskID == fingerprint.DiskID {
			return entry
		}
	}
	return nil
}

func matches(entry *fakeEntry, fingerprint domain.Fingerprint, relaxed bool) bool {
	if relaxed {
		return entry.fingerprint.UniqueID == fingerprint.UniqueID
	}
	return entry.fingerprint.MACHashSet == fingerprint.MACHashSet &&
		entry.fingerprint.UniqueID == fingerprint.UniqueID &&
		entry.fingerprint.DiskID == fingerprint.DiskID
}

func (f *FakeHardwareRepository) Upsert(ctx context.Context, playerID int64, fingerprint domain.Fingerprint) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if entry := f.find(playerID, fingerprint); entry != nil {
		entry.occurrences++
		return nil
	}
	f.entries = append(f.entries, &fakeEntry{
		playerID:    playerID,
		fingerprint: fingerprint,
		occurrences: 1,
	})
	return nil
}

// Seed inserts an entry with explicit occurrence and activation state.
func (f *FakeHardwareRepository) Seed(playerID int64, fingerprint domain.Fingerprint, occurrences int64, activated bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.entries = append(f.entries, &fakeEntry{
		playerID:    playerID,
		fingerprint: fingerprint,
		occurrences: occurrences,
		activated:   activated,
	})
}

func (f *FakeHardwareRepository) MarkActivated(ctx context.Context, playerID int64, fingerprint domain.Fingerprint) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if entry := f.find(playerID, fingerprint); entry != nil {
		entry.activated = true
	}
	return nil
}

func (f *FakeHardwareRepository) SanctionedMatches(ctx context.Context, playerID int64, fingerprint domain.Fingerprint, relaxed bool) ([]domain.HardwareMatch, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	result := []domain.HardwareMatch{}
	for _, entry := range f.entries {
		if entry.playerID == playerID || !f.Sanctioned[entry.playerID] {
			continue
		}
		if !matches(entry, fingerprint, relaxed) {
			continue
		}
		result = append(result, domain.HardwareMatch{
			PlayerID:    entry.playerID,
			Username:    f.Usernames[entry.playerID],
			Occurrences: entry.occurrences,
		})
	}
	return result, nil
}

func (f *FakeHardwareRepository) FirstActivatedMatch(ctx context.Context, playerID int64, fingerprint domain.Fingerprint, relaxed bool) (int64, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	var matchID int64
	found := false
	for _, entry := range f.entries {
		if entry.playerID == playerID || !entry.activated {
			continue
		}
		if !matches(entry, fingerprint, relaxed) {
			continue
		}
		if !found || entry.playerID < matchID {
			matchID = entry.playerID
			found = true
		}
	}
	return matchID, found, nil
}

func (f *FakeHardwareRepository) CountLogs(ctx context.Context, playerID int64) (int64, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	var count int64
	for _, entry := range f.entries {
		if entry.playerID == playerID {
			count++
		}
	}
	return count, nil
}

func (f *FakeHardwareRepository) HasActivated(ctx context.Context, playerID int64) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for _, entry := range f.entries {
		if entry.playerID == playerID && entry.activated {
			return true, nil
		}
	}
	return false, nil
}

// Occurrences returns the stored occurrence count for an exact tuple.
func (f *FakeHardwareRepository) Occurrences(playerID int64, fingerprint domain.Fingerprint) int64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if entry := f.find(playerID, fingerprint); entry != nil {
		return entry.occurrences
	}
	return 0
}
