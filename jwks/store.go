package jwks

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Store keeps key sets per issuer URL for a limited time.
type Store interface {
	// Get returns the key set stored for issuerURL. The boolean is false
	// when nothing usable is stored.
	Get(ctx context.Context, issuerURL string) (jwk.Set, bool, error)

	// Set stores set for issuerURL until ttl elapses.
	Set(ctx context.Context, issuerURL string, set jwk.Set, ttl time.Duration) error
}

// MemoryStore is an in-process Store with LRU eviction.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	lruList    *list.List
	maxEntries int
	now        func() time.Time
}

type memoryEntry struct {
	issuerURL string
	set       jwk.Set
	expiresAt time.Time
}

// NewMemoryStore returns a MemoryStore holding at most maxEntries issuers;
// 0 means unlimited.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]*list.Element),
		lruList:    list.New(),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, issuerURL string) (jwk.Set, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	element, ok := s.entries[issuerURL]
	if !ok {
		return nil, false, nil
	}

	entry := element.Value.(*memoryEntry)
	if !s.now().Before(entry.expiresAt) {
		s.lruList.Remove(element)
		delete(s.entries, issuerURL)
		return nil, false, nil
	}

	s.lruList.MoveToFront(element)
	return entry.set, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, issuerURL string, set jwk.Set, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt := s.now().Add(ttl)

	if element, ok := s.entries[issuerURL]; ok {
		entry := element.Value.(*memoryEntry)
		entry.set = set
		entry.expiresAt = expiresAt
		s.lruList.MoveToFront(element)
		return nil
	}

	if s.maxEntries > 0 && s.lruList.Len() >= s.maxEntries {
		s.evictLRU()
	}

	s.entries[issuerURL] = s.lruList.PushFront(&memoryEntry{
		issuerURL: issuerURL,
		set:       set,
		expiresAt: expiresAt,
	})
	return nil
}

// Len returns the number of issuers currently stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lruList.Len()
}

// evictLRU must be called with mu held.
func (s *MemoryStore) evictLRU() {
	oldest := s.lruList.Back()
	if oldest == nil {
		return
	}
	delete(s.entries, oldest.Value.(*memoryEntry).issuerURL)
	s.lruList.Remove(oldest)
}
