package session

import (
	"sync"
	"time"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
)

// Session is one conversational context: memory, current focus and the raw
// transcript. Turns on the same session must be serialized via Lock.
type Session struct {
	Key        string
	Memory     *Memory
	Context    *Context
	Transcript []core.Message
	CreatedAt  time.Time

	mu sync.Mutex
}

func newSession(key string) *Session {
	return &Session{
		Key:       key,
		Memory:    NewMemory(),
		Context:   &Context{},
		CreatedAt: time.Now(),
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// AppendExchange records a user/assistant pair and trims the transcript.
func (s *Session) AppendExchange(user, assistant core.Message) {
	s.Transcript = append(s.Transcript, user, assistant)
	if len(s.Transcript) > transcriptLimit {
		s.Transcript = s.Transcript[len(s.Transcript)-transcriptLimit:]
	}
}

// Registry is the process-wide map of session key to Session. The map has
// its own lock, independent of per-session locking, so two unseen keys can
// be created concurrently without racing.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Acquire returns the session for key, creating it on first use.
func (r *Registry) Acquire(key string) *Session {
	r.mu.RLock()
	sess, ok := r.sessions[key]
	r.mu.RUnlock()
	if ok {
		return sess
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[key]; ok {
		return sess
	}
	sess = newSession(key)
	r.sessions[key] = sess
	return sess
}

// Clear drops a session. Clearing an unknown key is not an error.
func (r *Registry) Clear(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}

// Len reports the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
