// Package session keeps per-session conversation history in memory.
//
// History lives only for the process lifetime. The map itself is guarded by
// a mutex, but two concurrent requests against the same session id still
// race on read-prompt-append and may interleave their appends in either
// order. That interleaving is a documented limitation, not corrected here.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/docforge/docforge/domain"
)

// Store defines the interface for conversation history.
type Store interface {
	// GetOrCreate returns the session id and a snapshot of its history,
	// creating the session on first reference. If sessionID is empty an id
	// is derived deterministically from the answers payload.
	GetOrCreate(sessionID string, answers *domain.Answers) (string, []domain.Turn)

	// Append adds one turn to a session. Best-effort: it never fails, and
	// creates the session if it does not exist.
	Append(sessionID string, role domain.Role, text string)

	// History returns a snapshot of a session's turns.
	History(sessionID string) ([]domain.Turn, bool)
}

// MemoryStore implements Store with a mutex-guarded map. Sessions idle
// longer than the TTL are evicted by a background janitor; a TTL of zero
// disables eviction.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.janitor()
	}
	return s
}

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)

// DeriveID derives a deterministic session id from the answers payload, so
// repeated identical submissions without an explicit id collide predictably
// instead of creating unbounded new sessions.
func DeriveID(answers *domain.Answers) string {
	payload, _ := json.Marshal(answers)
	sum := sha256.Sum256(payload)
	return "sess_" + hex.EncodeToString(sum[:])[:16]
}

// GetOrCreate returns the session id and a snapshot of its history.
func (s *MemoryStore) GetOrCreate(sessionID string, answers *domain.Answers) (string, []domain.Turn) {
	if sessionID == "" {
		sessionID = DeriveID(answers)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &domain.Session{
			SessionID: sessionID,
			CreatedAt: time.Now(),
		}
		s.sessions[sessionID] = sess
	}
	sess.LastUsed = time.Now()

	return sessionID, snapshot(sess.Turns)
}

// Append adds one turn to a session.
func (s *MemoryStore) Append(sessionID string, role domain.Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &domain.Session{
			SessionID: sessionID,
			CreatedAt: time.Now(),
		}
		s.sessions[sessionID] = sess
	}
	sess.Turns = append(sess.Turns, domain.Turn{Role: role, Text: text})
	sess.LastUsed = time.Now()
}

// History returns a snapshot of a session's turns.
func (s *MemoryStore) History(sessionID string) ([]domain.Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return snapshot(sess.Turns), true
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the eviction janitor.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(s.ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired(time.Now())
		}
	}
}

// evictExpired removes sessions idle longer than the TTL.
func (s *MemoryStore) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if now.Sub(sess.LastUsed) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func snapshot(turns []domain.Turn) []domain.Turn {
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}
