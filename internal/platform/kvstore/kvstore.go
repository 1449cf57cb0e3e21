// Package kvstore keeps string preferences in memory, notifies subscribers
// on change and optionally writes through to a persistent backend.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrClosed is returned by Set after Close.
var ErrClosed = errors.New("kvstore is closed")

// Backend persists preferences.
type Backend interface {
	LoadPreferences(ctx context.Context) (map[string]string, error)
	PutPreference(ctx context.Context, key, value string) error
}

// Subscriber is called with the new value after a key changes.
type Subscriber func(value string)

type subscription struct {
	id int
	fn Subscriber
}

// Store is a process-wide preference map.
type Store struct {
	backend Backend

	mu          sync.RWMutex
	values      map[string]string
	subscribers map[string][]subscription
	nextID      int
	closed      bool
}

// New returns a Store seeded from backend. A nil backend keeps values in
// memory only.
func New(ctx context.Context, backend Backend) (*Store, error) {
	values := map[string]string{}
	if backend != nil {
		loaded, err := backend.LoadPreferences(ctx)
		if err != nil {
			return nil, fmt.Errorf("load preferences: %w", err)
		}
		for key, value := range loaded {
			values[key] = value
		}
	}
	return &Store{
		backend:     backend,
		values:      values,
		subscribers: map[string][]subscription{},
	}, nil
}

// Get returns the value for key, or def when unset.
func (s *Store) Get(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if value, ok := s.values[key]; ok {
		return value
	}
	return def
}

// All returns a copy of every stored value.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

// Set stores value under key, persisting it first when a backend is set,
// then notifies the key's subscribers outside the lock. An unchanged value
// does not notify.
func (s *Store) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("preference key is required")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if current, ok := s.values[key]; ok && current == value {
		s.mu.Unlock()
		return nil
	}
	if s.backend != nil {
		if err := s.backend.PutPreference(ctx, key, value); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("persist preference %s: %w", key, err)
		}
	}
	s.values[key] = value
	subscribers := append([]subscription(nil), s.subscribers[key]...)
	s.mu.Unlock()

	for _, sub := range subscribers {
		sub.fn(value)
	}
	return nil
}

// Subscribe registers fn for changes to key and returns a function that
// removes it. Calling the returned function more than once is harmless.
func (s *Store) Subscribe(key string, fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.subscribers[key] = append(s.subscribers[key], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			subs := s.subscribers[key]
			for i, sub := range subs {
				if sub.id == id {
					s.subscribers[key] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(s.subscribers[key]) == 0 {
				delete(s.subscribers, key)
			}
		})
	}
}

// Close drops every subscriber and rejects further writes.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subscribers = map[string][]subscription{}
	return nil
}
