package memory

import (
	"context"
	"sync"

	"github.com/MikhailRaia/pyth/internal/model"
	"github.com/MikhailRaia/pyth/internal/storage"
)

// Storage implements in-memory LinkStorage for testing and development.
type Storage struct {
	links map[string]model.Link
	mutex sync.RWMutex
}

// NewStorage creates a new in-memory storage instance.
func NewStorage() *Storage {
	return &Storage{
		links: make(map[string]model.Link),
	}
}

// Get returns the link stored under the token.
func (s *Storage) Get(_ context.Context, link string) (model.Link, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	l, found := s.links[link]
	if !found {
		return model.Link{}, storage.ErrLinkNotFound
	}

	return l, nil
}

// Exists reports whether the token is taken.
func (s *Storage) Exists(_ context.Context, link string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, found := s.links[link]
	return found, nil
}

// Create stores a new link.
func (s *Storage) Create(_ context.Context, l model.Link) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, found := s.links[l.Link]; found {
		return storage.ErrLinkExists
	}

	s.links[l.Link] = l
	return nil
}

// Rename moves a link to a new token.
func (s *Storage) Rename(_ context.Context, link, newLink string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	l, found := s.links[link]
	if !found {
		return storage.ErrLinkNotFound
	}
	if _, taken := s.links[newLink]; taken {
		return storage.ErrLinkExists
	}

	delete(s.links, link)
	l.Link = newLink
	s.links[newLink] = l
	return nil
}

// UpdateTarget replaces the destination of a link.
func (s *Storage) UpdateTarget(_ context.Context, link, target string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	l, found := s.links[link]
	if !found {
		return storage.ErrLinkNotFound
	}

	l.Target = target
	s.links[link] = l
	return nil
}

// Delete removes a link.
func (s *Storage) Delete(_ context.Context, link string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, found := s.links[link]; !found {
		return storage.ErrLinkNotFound
	}

	delete(s.links, link)
	return nil
}

func (s *Storage) Ping(context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// Count returns the number of stored links.
func (s *Storage) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.links)
}
