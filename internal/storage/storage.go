package storage

import (
	"context"
	"errors"

	"github.com/MikhailRaia/pyth/internal/model"
)

var (
	// ErrLinkExists is returned when a token is already taken.
	ErrLinkExists = errors.New("link already exists")
	// ErrLinkNotFound is returned when no row matches the token.
	ErrLinkNotFound = errors.New("link not found")
)

// LinkStorage persists links keyed by their token.
type LinkStorage interface {
	Get(ctx context.Context, link string) (model.Link, error)
	Exists(ctx context.Context, link string) (bool, error)
	Create(ctx context.Context, l model.Link) error
	Rename(ctx context.Context, link, newLink string) error
	UpdateTarget(ctx context.Context, link, target string) error
	Delete(ctx context.Context, link string) error
	Ping(ctx context.Context) error
	Close() error
}

// Unwrapper is implemented by decorators such as caches.
type Unwrapper interface {
	Unwrap() LinkStorage
}

// Primary returns the storage behind any decorators. Reads that gate a
// mutation go there so they never see a cached row.
func Primary(s LinkStorage) LinkStorage {
	for {
		u, ok := s.(Unwrapper)
		if !ok {
			return s
		}
		s = u.Unwrap()
	}
}
