package notify

import (
	"context"
	"sync"

	id "didgate/pkg/domain"
)

// MemoryNotifier delivers signals within one process.
type MemoryNotifier struct {
	mu   sync.Mutex
	subs map[id.SessionID]map[*memorySubscription]struct{}
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[id.SessionID]map[*memorySubscription]struct{})}
}

// Publish never blocks: a subscriber that already holds an undelivered
// signal does not receive another.
func (n *MemoryNotifier) Publish(_ context.Context, sessionID id.SessionID, signal Signal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for sub := range n.subs[sessionID] {
		select {
		case sub.out <- signal:
		default:
		}
	}
	return nil
}

func (n *MemoryNotifier) Subscribe(ctx context.Context, sessionID id.SessionID) (Subscription, error) {
	sub := &memorySubscription{
		notifier:  n,
		sessionID: sessionID,
		out:       make(chan Signal, 1),
		stop:      make(chan struct{}),
	}
	n.mu.Lock()
	if n.subs[sessionID] == nil {
		n.subs[sessionID] = make(map[*memorySubscription]struct{})
	}
	n.subs[sessionID][sub] = struct{}{}
	n.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.stop:
		}
	}()
	return sub, nil
}

// Subscribers reports how many subscriptions are open for a session.
func (n *MemoryNotifier) Subscribers(sessionID id.SessionID) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[sessionID])
}

type memorySubscription struct {
	notifier  *MemoryNotifier
	sessionID id.SessionID
	out       chan Signal
	stop      chan struct{}
	once      sync.Once
}

func (s *memorySubscription) Signals() <-chan Signal { return s.out }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		n := s.notifier
		n.mu.Lock()
		delete(n.subs[s.sessionID], s)
		if len(n.subs[s.sessionID]) == 0 {
			delete(n.subs, s.sessionID)
		}
		close(s.out)
		n.mu.Unlock()
		close(s.stop)
	})
	return nil
}
