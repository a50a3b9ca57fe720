package app

import (
	"sync"
	"time"

	"quizterios-service/internal/domain"
)

// Session is an in-memory game session owned by one client.
type Session struct {
	id          string
	createdAt   time.Time
	mu          sync.Mutex
	game        *Game
	subscribers map[chan domain.Snapshot]struct{}
}

// NewSession is exported for infrastructure layers that create sessions.
func NewSession(id string) *Session {
	return &Session{
		id:          id,
		createdAt:   time.Now(),
		game:        NewGame(),
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt reports when the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Snapshot returns the current state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// apply runs fn against the game under the session lock. Subscribers are
// notified only when fn succeeds.
func (s *Session) apply(fn func(g *Game) error) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.game); err != nil {
		return s.snapshotLocked(), err
	}
	return s.broadcastLocked(), nil
}

// closeSubscribers stops the fan-out; used when the session is discarded.
func (s *Session) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game.Abandon()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.Snapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so a slow reader cannot block the game.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := s.game.Snapshot()
	snap.SessionID = s.id
	return snap
}
