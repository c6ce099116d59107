package session

import (
	"context"
	"sync"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/log"
)

// Store keeps at most one live session per user. Expired sessions are
// reclaimed lazily on access and by a periodic background sweep, so an
// abandoned conversation cannot grow the table without bound.
type Store struct {
	mu       sync.Mutex
	sessions map[core.UserID]*Session
	ttl      time.Duration
	log      *log.Logger
	now      func() time.Time
}

func NewStore(ttl time.Duration, logger *log.Logger) *Store {
	return &Store{
		sessions: make(map[core.UserID]*Session),
		ttl:      ttl,
		log:      logger.WithComponent(log.ComponentSession),
		now:      time.Now,
	}
}

// Start replaces any existing session for the user with a fresh one.
// It returns the new session and whether an unfinished one was dropped,
// so the caller can tell the user.
func (s *Store) Start(id core.UserID, flow Flow, step Step) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	_, replaced := s.sessions[id]
	sess := &Session{
		UserID:       id,
		Flow:         flow,
		Step:         step,
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[id] = sess
	return sess, replaced
}

// Get returns the user's live session. An expired session is removed
// and reported as (nil, true) so the caller can notify the user, which
// keeps step changes visible rather than silent.
func (s *Store) Get(id core.UserID) (sess *Session, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if sess.Expired(s.now(), s.ttl) {
		delete(s.sessions, id)
		return nil, true
	}
	sess.LastActivity = s.now()
	return sess, false
}

// End removes the user's session, if any.
func (s *Store) End(id core.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions, expired ones included until
// the next sweep.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes all expired sessions and returns the ids it dropped.
func (s *Store) Sweep() []core.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var dropped []core.UserID
	for id, sess := range s.sessions {
		if sess.Expired(now, s.ttl) {
			delete(s.sessions, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

// RunSweeper sweeps periodically until the context is cancelled. The
// onTimeout callback runs outside the store lock for each dropped user,
// letting the engine tell them their conversation timed out.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration, onTimeout func(core.UserID)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := s.Sweep()
			if len(dropped) > 0 {
				s.log.InfoContext(ctx, "Reclaimed idle sessions",
					log.FieldOperation, log.OpSweep, "count", len(dropped))
			}
			if onTimeout != nil {
				for _, id := range dropped {
					onTimeout(id)
				}
			}
		}
	}
}
