package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrTokenSpaceExhausted is returned when no free token exists up to MaxLength.
var ErrTokenSpaceExhausted = errors.New("token space exhausted")

const (
	DefaultMinLength         = 3
	DefaultMaxLength         = 80
	DefaultAttemptsPerLength = 3
)

// Checker reports whether a token is already stored.
type Checker interface {
	Exists(ctx context.Context, link string) (bool, error)
}

// Config tunes the allocator.
type Config struct {
	MinLength         int
	MaxLength         int
	AttemptsPerLength int
	Reserved          []string
}

func DefaultConfig() Config {
	return Config{
		MinLength:         DefaultMinLength,
		MaxLength:         DefaultMaxLength,
		AttemptsPerLength: DefaultAttemptsPerLength,
	}
}

// Allocator hands out random tokens that are not present in storage.
// Collisions at one length are retried with fresh tokens; after
// AttemptsPerLength collisions, or once the length is exhausted, the
// token grows by one character.
type Allocator struct {
	checker  Checker
	cfg      Config
	reserved map[string]struct{}
	random   func(length int) (string, error)
}

func NewAllocator(checker Checker, cfg Config) *Allocator {
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.MaxLength < cfg.MinLength {
		cfg.MaxLength = max(DefaultMaxLength, cfg.MinLength)
	}
	if cfg.AttemptsPerLength <= 0 {
		cfg.AttemptsPerLength = DefaultAttemptsPerLength
	}

	reserved := make(map[string]struct{}, len(cfg.Reserved))
	for _, r := range cfg.Reserved {
		reserved[strings.ToLower(r)] = struct{}{}
	}

	return &Allocator{
		checker:  checker,
		cfg:      cfg,
		reserved: reserved,
		random:   RandomToken,
	}
}

// IsReserved reports whether the token collides with a route name.
func (a *Allocator) IsReserved(token string) bool {
	_, ok := a.reserved[strings.ToLower(token)]
	return ok
}

// Allocate returns a token that was free at the time of the check.
// Callers still have to handle a lost race on insert.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	for length := a.cfg.MinLength; length <= a.cfg.MaxLength; length++ {
		space := Combinations(length, uint64(a.cfg.AttemptsPerLength))
		tried := make(map[string]struct{}, space)

		for uint64(len(tried)) < space {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			token, err := a.random(length)
			if err != nil {
				return "", fmt.Errorf("error generating token: %w", err)
			}
			if _, seen := tried[token]; seen {
				continue
			}
			tried[token] = struct{}{}

			if a.IsReserved(token) {
				continue
			}

			exists, err := a.checker.Exists(ctx, token)
			if err != nil {
				return "", fmt.Errorf("error checking if token exists: %w", err)
			}
			if !exists {
				return token, nil
			}
		}

		log.Debug().
			Int("length", length).
			Int("tried", len(tried)).
			Msg("Token length exhausted, growing")
	}

	return "", ErrTokenSpaceExhausted
}
