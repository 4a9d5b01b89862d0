package report

import (
	"strings"
	"sync"
	"time"
)

const defaultStateTTL = 30 * time.Minute

type storeItem struct {
	table   *Table
	expires time.Time
}

// Store keeps one Table per session and screen so a failed reload keeps the
// rows the admin was looking at. Entries expire after ttl of inactivity.
type Store struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	items map[string]storeItem
}

// NewStore constructs a Store.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &Store{ttl: ttl, now: time.Now, items: make(map[string]storeItem)}
}

// Table returns the session's table for def, creating it when missing or
// expired, and rebinds it to fetch.
func (s *Store) Table(sessionID string, def *Definition, fetch Fetcher) *Table {
	key := storeKey(sessionID, def.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	item, ok := s.items[key]
	if !ok {
		item.table = NewTable(def, fetch)
	} else {
		item.table.Bind(fetch)
	}
	item.expires = now.Add(s.ttl)
	s.items[key] = item
	return item.table
}

// Lookup returns an existing table without creating one.
func (s *Store) Lookup(sessionID, name string) (*Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[storeKey(sessionID, name)]
	if !ok || s.now().After(item.expires) {
		return nil, false
	}
	return item.table, true
}

// Drop forgets every table of a session.
func (s *Store) Drop(sessionID string) {
	prefix := sessionID + "|"
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
		}
	}
}

// Len returns the number of live tables.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	return len(s.items)
}

func (s *Store) sweepLocked(now time.Time) {
	for key, item := range s.items {
		if now.After(item.expires) {
			delete(s.items, key)
		}
	}
}

func storeKey(sessionID, name string) string {
	return sessionID + "|" + name
}
