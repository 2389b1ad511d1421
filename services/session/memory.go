package session

import (
	"context"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps sessions in process memory. Suitable for development
// and tests, sessions are lost on restart.
type MemoryStore struct {
	cache *expirable.LRU[string, Session]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: expirable.NewLRU[string, Session](8192, nil, InactivityExpiry),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Session, bool, error) {
	sess, ok := s.cache.Get(id)
	return sess, ok, nil
}

func (s *MemoryStore) Put(ctx context.Context, id string, sess Session) error {
	// Add resets the entry's expiry, which is what re-arms the
	// inactivity timer on every request.
	s.cache.Add(id, sess)
	return nil
}

func (s *MemoryStore) Destroy(ctx context.Context, id string) error {
	s.cache.Remove(id)
	return nil
}
