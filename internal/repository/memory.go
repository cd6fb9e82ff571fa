package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"propertymatch/internal/model"
)

// MemoryCorpus is a process-local corpus, used for demos and tests
type MemoryCorpus struct {
	mu      sync.RWMutex
	sources map[string][]model.EmbeddingRecord
}

// NewMemoryCorpus creates an empty in-memory corpus
func NewMemoryCorpus() *MemoryCorpus {
	return &MemoryCorpus{sources: make(map[string][]model.EmbeddingRecord)}
}

// ReplaceSource implements CorpusStore
func (m *MemoryCorpus) ReplaceSource(_ context.Context, source string, records []model.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(records) == 0 {
		delete(m.sources, source)
		return nil
	}
	m.sources[source] = append([]model.EmbeddingRecord(nil), records...)
	return nil
}

// LoadAll implements CorpusStore
func (m *MemoryCorpus) LoadAll(_ context.Context) ([]model.EmbeddingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []model.EmbeddingRecord
	for _, name := range m.sourceNames() {
		all = append(all, m.sources[name]...)
	}
	return all, nil
}

// Sources implements CorpusStore
func (m *MemoryCorpus) Sources(_ context.Context) ([]model.SourceInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]model.SourceInfo, 0, len(m.sources))
	for _, name := range m.sourceNames() {
		infos = append(infos, model.SourceInfo{Source: name, Records: len(m.sources[name])})
	}
	return infos, nil
}

func (m *MemoryCorpus) sourceNames() []string {
	names := make([]string, 0, len(m.sources))
	for name := range m.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MemorySessionStore keeps sessions in a map; expired sessions are treated as missing
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.ConversationState
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates a session store. A zero ttl never expires sessions.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]model.ConversationState),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Save implements SessionStore
func (s *MemorySessionStore) Save(_ context.Context, state model.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.Preferences = state.Preferences.Clone()
	s.sessions[state.SessionID] = state
	return nil
}

// Load implements SessionStore
func (s *MemorySessionStore) Load(_ context.Context, sessionID string) (model.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return model.ConversationState{}, ErrSessionNotFound
	}
	if s.ttl > 0 && s.now().Sub(state.UpdatedAt) > s.ttl {
		delete(s.sessions, sessionID)
		return model.ConversationState{}, ErrSessionNotFound
	}
	state.Preferences = state.Preferences.Clone()
	return state, nil
}

// Delete implements SessionStore
func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

var (
	_ CorpusStore  = (*MemoryCorpus)(nil)
	_ SessionStore = (*MemorySessionStore)(nil)
)
