package notifier

import (
	"context"
	"sync"
)

// FakeNotifier records messages for tests.
type FakeNotifier struct {
	mutex    sync.Mutex
	Messages map[Channel][]string
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{Messages: make(map[Channel][]string)}
}

func (f *FakeNotifier) Notify(ctx context.Context, channel Channel, message string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.Messages[channel] = append(f.Messages[channel], message)
}
