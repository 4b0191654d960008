package sanctionrepository

import (
	"context"
	"sync"
	"time"

	"github.com/lumen-gg/standing/internal/domain"
)

// FakeSanctionRepository is an in-memory implementation for tests.
type FakeSanctionRepository struct {
	mutex  sync.Mutex
	nextID int64
	events []domain.SanctionEvent

	// FailAppend makes Append return this error, for audit-first tests.
	FailAppend error
}

func NewFakeSanctionRepository() *FakeSanctionRepository {
	return &FakeSanctionRepository{nextID: 1}
}

func (f *FakeSanctionRepository) Append(ctx context.Context, event *domain.SanctionEvent) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.FailAppend != nil {
		return f.FailAppend
	}

	stored := *event
	stored.ID = f.nextID
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now()
	}
	f.nextID++
	f.events = append(f.events, stored)
	return nil
}

func (f *FakeSanctionRepository) LatestSilence(ctx context.Context, playerID int64) (*domain.SanctionEvent, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for i := len(f.events) - 1; i >= 0; i-- {
		event := f.events[i]
		if event.PlayerID == playerID && event.Kind == domain.SanctionSilence {
			return &event, nil
		}
	}
	return nil, domain.ErrSilenceNotFound
}

func (f *FakeSanctionRepository) ZeroLatestSilence(ctx context.Context, playerID int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].PlayerID == playerID && f.events[i].Kind == domain.SanctionSilence {
			f.events[i].Period = 0
			return nil
		}
	}
	return nil
}

func (f *FakeSanctionRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]domain.SanctionEvent, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	result := []domain.SanctionEvent{}
	for i := len(f.events) - 1; i >= 0 && len(result) < limit; i-- {
		if f.events[i].PlayerID == playerID {
			result = append(result, f.events[i])
		}
	}
	return result, nil
}

// Events returns a copy of every stored entry, oldest first.
func (f *FakeSanctionRepository) Events() []domain.SanctionEvent {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	copied := make([]domain.SanctionEvent, len(f.events))
	copy(copied, f.events)
	return copied
}
