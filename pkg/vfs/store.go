package vfs

import (
	"sync"
)

// Store holds the current tree and is its single writer. Every Dispatch is
// applied as one batch and subscribers are notified once, after the new tree
// is in place.
type Store struct {
	mu   sync.RWMutex
	root *Node

	listenersMu sync.RWMutex
	listeners   map[int]func(*Node)
	nextListen  int
}

// NewStore creates a store holding root, or the seed tree when root is nil.
func NewStore(root *Node) *Store {
	if root == nil {
		root = SeedTree()
	}
	return &Store{root: root, listeners: make(map[int]func(*Node))}
}

// Root returns the current tree. It must not be modified.
func (s *Store) Root() *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Dispatch applies actions in order and reports whether the tree changed.
func (s *Store) Dispatch(actions ...Action) bool {
	return s.Update(func(*Node) []Action { return actions })
}

// Update computes a batch from the current tree and applies it, without
// another writer getting in between.
func (s *Store) Update(fn func(root *Node) []Action) bool {
	s.mu.Lock()
	before := s.root
	s.root = ApplyAll(before, fn(before)...)
	after := s.root
	s.mu.Unlock()

	if after == before {
		return false
	}
	s.notify(after)
	return true
}

// Replace swaps in a whole tree, e.g. one loaded from persistence.
func (s *Store) Replace(root *Node) {
	s.mu.Lock()
	s.root = root
	s.mu.Unlock()

	s.notify(root)
}

// Subscribe registers fn to receive the new tree after every change. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(root *Node)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextListen
	s.nextListen++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(root *Node) {
	s.listenersMu.RLock()
	fns := make([]func(*Node), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(root)
	}
}
