package store

import (
	"context"
	"sync"

	"github.com/sweetpotato0/voyager/archive"
)

// InMemoryStore implements archive.Store using in-memory storage
type InMemoryStore struct {
	entries []*archive.Entry
	mu      sync.RWMutex
}

// NewInMemoryStore creates a new in-memory archive
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make([]*archive.Entry, 0),
	}
}

// Add records an entry
func (s *InMemoryStore) Add(ctx context.Context, entry *archive.Entry) error {
	if err := archive.Prepare(entry); err != nil {
		return err
	}
	cp := *entry
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &cp)
	return nil
}

// List returns the entries of a conversation, newest first
func (s *InMemoryStore) List(ctx context.Context, conversationID string) ([]*archive.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*archive.Entry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if conversationID != "" && e.ConversationID != conversationID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// Count returns the number of archived entries
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Clear removes all entries
func (s *InMemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*archive.Entry, 0)
	return nil
}
