package app

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SessionStore owns the ordered session collection and the active-session
// pointer. Every mutation is a read-modify-write of the whole collection
// under the lock, followed by a persistence commit, so concurrent turn
// resolutions never produce lost updates.
//
// Turn completions address sessions by ID captured at dispatch time, never
// by the active index, because the user may switch chats while a query is
// in flight.
type SessionStore struct {
	mu         sync.Mutex
	sessions   []*Session
	active     int
	pending    map[string]bool
	state      StateStore
	log        *Logger
	titleLimit int
}

// NewSessionStore loads persisted state once. A missing or corrupt blob
// degrades to a single empty session; startup never fails on storage.
func NewSessionStore(state StateStore, log *Logger, titleLimit int) *SessionStore {
	if log == nil {
		log = NewLogger(nil)
	}
	if titleLimit <= 0 {
		titleLimit = defaultTitleLimit
	}
	s := &SessionStore{
		state:      state,
		log:        log,
		pending:    make(map[string]bool),
		titleLimit: titleLimit,
	}

	var persisted []PersistedSession
	if state != nil {
		var err error
		persisted, err = state.Load()
		if err != nil {
			log.Warn("failed to load session state, starting fresh", map[string]interface{}{"error": err.Error()})
			persisted = nil
		}
	}
	for _, p := range persisted {
		sess := &Session{
			ID:       uuid.NewString(),
			Title:    p.Title,
			Messages: make([]ChatMessage, 0, len(p.Messages)),
		}
		for _, m := range p.Messages {
			sess.Messages = append(sess.Messages, ChatMessage{Role: Role(m.Role), Text: m.Text})
		}
		if p.GraphData != nil {
			snap, err := SnapshotFromElements(p.GraphData)
			if err != nil {
				log.Warn("dropping persisted graph snapshot", map[string]interface{}{"error": err.Error()})
			} else {
				sess.Graph = snap
			}
		}
		s.sessions = append(s.sessions, sess)
	}
	if len(s.sessions) == 0 {
		s.sessions = []*Session{newEmptySession()}
	}
	s.active = 0
	return s
}

func newEmptySession() *Session {
	return &Session{ID: uuid.NewString(), Title: defaultSessionTitle}
}

// CreateSession appends a new empty session and makes it active. Every call
// creates exactly one session; there is no deduplication.
func (s *SessionStore) CreateSession() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := newEmptySession()
	s.sessions = append(s.sessions, sess)
	s.active = len(s.sessions) - 1
	s.persistLocked()
	return copySession(sess)
}

// EnsureActiveSession returns the active session, creating one if the
// collection is somehow empty, so a query can run before any explicit
// "new chat".
func (s *SessionStore) EnsureActiveSession() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		sess := newEmptySession()
		s.sessions = []*Session{sess}
		s.active = 0
		s.persistLocked()
	}
	return copySession(s.sessions[s.active])
}

func (s *SessionStore) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *SessionStore) ActiveSession() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return Session{}, false
	}
	return copySession(s.sessions[s.active]), true
}

func (s *SessionStore) SessionByID(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.findLocked(id); sess != nil {
		return copySession(sess), true
	}
	return Session{}, false
}

// SelectSession moves the active pointer; session content is untouched.
func (s *SessionStore) SelectSession(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.sessions) {
		return fmt.Errorf("session index %d out of range", i)
	}
	s.active = i
	return nil
}

func (s *SessionStore) Summaries() []SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, SessionSummary{
			ID:           sess.ID,
			Title:        sess.Title,
			MessageCount: len(sess.Messages),
			HasGraph:     sess.Graph != nil,
			Pending:      s.pending[sess.ID],
		})
	}
	return out
}

// AppendMessage appends to the identified session and recomputes its title.
// An unknown id is a logged no-op: a completion must never crash the store.
func (s *SessionStore) AppendMessage(sessionID string, m ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.findLocked(sessionID)
	if sess == nil {
		s.log.Warn("append to unknown session", map[string]interface{}{"session_id": sessionID})
		return
	}
	sess.Messages = append(sess.Messages, m)
	sess.Title = deriveTitle(sess.Messages, s.titleLimit)
	s.persistLocked()
}

// UpdateMessages replaces the identified session's message list wholesale.
func (s *SessionStore) UpdateMessages(sessionID string, msgs []ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.findLocked(sessionID)
	if sess == nil {
		s.log.Warn("update messages on unknown session", map[string]interface{}{"session_id": sessionID})
		return
	}
	sess.Messages = append([]ChatMessage(nil), msgs...)
	sess.Title = deriveTitle(sess.Messages, s.titleLimit)
	s.persistLocked()
}

// UpdateGraph replaces (or, with nil, clears) the session's graph snapshot.
// Snapshots are replaced wholesale, never merged.
func (s *SessionStore) UpdateGraph(sessionID string, snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.findLocked(sessionID)
	if sess == nil {
		s.log.Warn("update graph on unknown session", map[string]interface{}{"session_id": sessionID})
		return
	}
	sess.Graph = snap
	s.persistLocked()
}

func (s *SessionStore) ClearGraph(sessionID string) {
	s.UpdateGraph(sessionID, nil)
}

// Pending reports whether the session has a turn in flight.
func (s *SessionStore) Pending(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[sessionID]
}

// beginPending atomically marks a session pending. It returns false when a
// turn is already in flight, enforcing at-most-one turn per session.
func (s *SessionStore) beginPending(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(sessionID) == nil || s.pending[sessionID] {
		return false
	}
	s.pending[sessionID] = true
	return true
}

func (s *SessionStore) endPending(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, sessionID)
}

func (s *SessionStore) findLocked(id string) *Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

func copySession(sess *Session) Session {
	out := *sess
	out.Messages = append([]ChatMessage(nil), sess.Messages...)
	return out
}

func (s *SessionStore) persistLocked() {
	if s.state == nil {
		return
	}
	out := make([]PersistedSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		p := PersistedSession{Title: sess.Title, Messages: make([]PersistedMessage, 0, len(sess.Messages))}
		for _, m := range sess.Messages {
			p.Messages = append(p.Messages, PersistedMessage{Role: string(m.Role), Text: m.Text})
		}
		if sess.Graph != nil {
			p.GraphData = sess.Graph.Elements()
			if p.GraphData == nil {
				p.GraphData = []Element{}
			}
		}
		out = append(out, p)
	}
	if err := s.state.Save(out); err != nil {
		s.log.Error("failed to persist sessions", map[string]interface{}{"error": err.Error()})
	}
}
