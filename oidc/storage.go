package oidc

import "sync"

// Storage persists session profile fields across page lifetimes.
// Implementations wrap a platform storage facility (session storage, local
// storage, a keychain); a missing key reads as the empty string.
// Implementations must be concurrently safe.
type Storage interface {
	Get(key string) (string, error)
	Set(key string, value string) error
	Delete(key string) error
}

// MemoryStorage is a concurrently safe in-memory Storage.  It is the
// default backend and the one tests use.
type MemoryStorage struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{m: make(map[string]string)}
}

// Get implements Storage.Get.
func (s *MemoryStorage) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[key], nil
}

// Set implements Storage.Set.
func (s *MemoryStorage) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

// Delete implements Storage.Delete.
func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
