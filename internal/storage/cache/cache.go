// Package cache wraps a LinkStorage with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MikhailRaia/pyth/internal/model"
	"github.com/MikhailRaia/pyth/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix = "link:"

	// tombstone replaces a key on every mutation. Fills use SET NX, so a
	// read that loaded the row before the mutation cannot cache it after.
	tombstone    = "-"
	TombstoneTTL = 10 * time.Second
)

// Client is the subset of *redis.Client used by the cache.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// entry is the cached form of a link. Passwords are never cached.
type entry struct {
	Link   string `json:"link"`
	Target string `json:"target"`
}

// Storage serves reads from Redis and falls back to the wrapped storage.
// Rows returned from the cache carry no password; callers checking
// credentials read through Unwrap.
type Storage struct {
	next   storage.LinkStorage
	client Client
	ttl    time.Duration
}

func NewStorage(next storage.LinkStorage, client Client, ttl time.Duration) *Storage {
	return &Storage{
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Unwrap returns the backing storage.
func (s *Storage) Unwrap() storage.LinkStorage {
	return s.next
}

func (s *Storage) Get(ctx context.Context, link string) (model.Link, error) {
	key := keyPrefix + link

	raw, err := s.client.Get(ctx, key).Result()
	fill := true
	switch {
	case err == nil && raw == tombstone:
		fill = false
	case err == nil:
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err == nil {
			return model.Link{Link: e.Link, Target: e.Target}, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("link", link).Msg("Cache read failed")
	}

	l, err := s.next.Get(ctx, link)
	if err != nil {
		return model.Link{}, err
	}

	if fill {
		s.fill(ctx, key, l)
	}
	return l, nil
}

func (s *Storage) fill(ctx context.Context, key string, l model.Link) {
	data, err := json.Marshal(entry{Link: l.Link, Target: l.Target})
	if err != nil {
		return
	}
	if err := s.client.SetNX(ctx, key, data, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("link", l.Link).Msg("Cache write failed")
	}
}

func (s *Storage) Exists(ctx context.Context, link string) (bool, error) {
	return s.next.Exists(ctx, link)
}

func (s *Storage) Create(ctx context.Context, l model.Link) error {
	if err := s.next.Create(ctx, l); err != nil {
		return err
	}
	s.invalidate(ctx, l.Link)
	return nil
}

func (s *Storage) Rename(ctx context.Context, link, newLink string) error {
	if err := s.next.Rename(ctx, link, newLink); err != nil {
		return err
	}
	s.invalidate(ctx, link, newLink)
	return nil
}

func (s *Storage) UpdateTarget(ctx context.Context, link, target string) error {
	if err := s.next.UpdateTarget(ctx, link, target); err != nil {
		return err
	}
	s.invalidate(ctx, link)
	return nil
}

func (s *Storage) Delete(ctx context.Context, link string) error {
	if err := s.next.Delete(ctx, link); err != nil {
		return err
	}
	s.invalidate(ctx, link)
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return err
	}
	return s.next.Ping(ctx)
}

func (s *Storage) Close() error {
	cerr := s.client.Close()
	if err := s.next.Close(); err != nil {
		return err
	}
	return cerr
}

func (s *Storage) invalidate(ctx context.Context, links ...string) {
	for _, l := range links {
		if err := s.client.Set(ctx, keyPrefix+l, tombstone, TombstoneTTL).Err(); err != nil {
			log.Warn().Err(err).Str("key", keyPrefix+l).Msg("Cache invalidation failed")
		}
	}
}
