package service

import (
	"sync"
	"time"

	"ecostock/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type session struct {
	entries   []model.InventoryRecord
	expiresAt time.Time
}

// SessionStore keeps staged manual entries in memory, one list per session.
// Sessions expire after ttl without access; expired sessions are evicted
// lazily on the next call.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewSessionStore creates an empty session store.
func NewSessionStore(ttl time.Duration, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With().Str("component", "sessions").Logger(),
	}
}

// Create opens a new empty session.
func (s *SessionStore) Create() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()

	id := uuid.New()
	s.sessions[id] = &session{
		entries:   []model.InventoryRecord{},
		expiresAt: s.now().Add(s.ttl),
	}

	s.logger.Debug().Str("session_id", id.String()).Msg("session created")
	return id
}

// Stage appends a record to the session. The caller validates it first.
func (s *SessionStore) Stage(id uuid.UUID, record model.InventoryRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(id)
	if err != nil {
		return 0, err
	}

	sess.entries = append(sess.entries, normalize(record))

	s.logger.Debug().
		Str("session_id", id.String()).
		Str("product", record.Product).
		Int("staged", len(sess.entries)).
		Msg("entry staged")
	return len(sess.entries), nil
}

// Entries returns a copy of the session's staged records.
func (s *SessionStore) Entries(id uuid.UUID) ([]model.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	entries := make([]model.InventoryRecord, len(sess.entries))
	copy(entries, sess.entries)
	return entries, nil
}

// Discard drops the session and its staged entries.
func (s *SessionStore) Discard(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.get(id); err != nil {
		return err
	}
	delete(s.sessions, id)

	s.logger.Debug().Str("session_id", id.String()).Msg("session discarded")
	return nil
}

// get returns a live session and extends its lifetime. Callers hold mu.
func (s *SessionStore) get(id uuid.UUID) (*session, error) {
	s.evictExpired()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	sess.expiresAt = s.now().Add(s.ttl)
	return sess, nil
}

func (s *SessionStore) evictExpired() {
	now := s.now()
	for id, sess := range s.sessions {
		if !now.Before(sess.expiresAt) {
			delete(s.sessions, id)
			s.logger.Debug().Str("session_id", id.String()).Msg("session expired")
		}
	}
}
