package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MikhailRaia/pyth/internal/auth"
	"github.com/MikhailRaia/pyth/internal/model"
	"github.com/MikhailRaia/pyth/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrTaken            = errors.New("link is taken")
	ErrWrongPassword    = errors.New("wrong password")
	ErrNotFound         = errors.New("link not found")
	ErrSessionsDisabled = errors.New("sessions are disabled")
)

// ReservedLinks are route names that can never be used as tokens.
var ReservedLinks = []string{
	"__repl", "peek", "decoder", "toggle-peek", "make", "delete",
	"change-link", "change-target", "decode", "api", "ping",
}

// allocateRetries bounds re-allocation when a random token is taken
// between the existence check and the insert.
const allocateRetries = 5

// Allocator hands out free random tokens.
type Allocator interface {
	Allocate(ctx context.Context) (string, error)
	IsReserved(token string) bool
}

// SessionIssuer signs management sessions and derives the fingerprint
// that binds a session to one stored row.
type SessionIssuer interface {
	GenerateToken(link, fingerprint string) (string, error)
	Fingerprint(link, password string) string
}

// LinkService implements creation, resolution and password-gated
// mutation of short links.
type LinkService struct {
	storage   storage.LinkStorage
	primary   storage.LinkStorage
	allocator Allocator
	sessions  SessionIssuer
	validate  *validator.Validate
	baseURL   string
}

// NewLinkService constructs a LinkService. sessions may be nil.
func NewLinkService(store storage.LinkStorage, allocator Allocator, sessions SessionIssuer, baseURL string) *LinkService {
	return &LinkService{
		storage:   store,
		primary:   storage.Primary(store),
		allocator: allocator,
		sessions:  sessions,
		validate:  newValidator(),
		baseURL:   baseURL,
	}
}

// ShortURL returns the absolute form of a token.
func (s *LinkService) ShortURL(link string) string {
	shortURL, err := url.JoinPath(s.baseURL, link)
	if err != nil {
		return strings.TrimRight(s.baseURL, "/") + "/" + link
	}
	return shortURL
}

// Make creates a link. An empty link gets a random token.
func (s *LinkService) Make(ctx context.Context, link, target, password string) (model.Link, error) {
	in := makeInput{Link: link, Target: NormalizeTarget(target), Password: password}
	if err := s.validate.Struct(in); err != nil {
		return model.Link{}, invalidInput(err)
	}

	if in.Link != "" {
		if s.allocator.IsReserved(in.Link) {
			return model.Link{}, ErrTaken
		}

		l := model.Link{Link: in.Link, Target: in.Target, Password: in.Password}
		if err := s.storage.Create(ctx, l); err != nil {
			if errors.Is(err, storage.ErrLinkExists) {
				return model.Link{}, ErrTaken
			}
			return model.Link{}, fmt.Errorf("error creating link: %w", err)
		}

		log.Info().Str("link", l.Link).Msg("Link created")
		return l, nil
	}

	for attempt := 0; attempt < allocateRetries; attempt++ {
		token, err := s.allocator.Allocate(ctx)
		if err != nil {
			return model.Link{}, fmt.Errorf("error allocating link: %w", err)
		}

		l := model.Link{Link: token, Target: in.Target, Password: in.Password}
		err = s.storage.Create(ctx, l)
		if err == nil {
			log.Info().Str("link", l.Link).Msg("Link created")
			return l, nil
		}
		if !errors.Is(err, storage.ErrLinkExists) {
			return model.Link{}, fmt.Errorf("error creating link: %w", err)
		}

		log.Debug().Str("link", token).Int("attempt", attempt+1).Msg("Allocated link taken concurrently, retrying")
	}

	return model.Link{}, fmt.Errorf("error allocating link: %w", ErrTaken)
}

// Resolve returns the target of link, with extra appended as a path suffix.
func (s *LinkService) Resolve(ctx context.Context, link, extra string) (string, error) {
	l, err := s.get(ctx, link)
	if err != nil {
		return "", err
	}

	return JoinExtra(l.Target, extra), nil
}

// Decode returns the stored target of link.
func (s *LinkService) Decode(ctx context.Context, link string) (string, error) {
	if link == "" {
		return "", fmt.Errorf("%w: link is required", ErrInvalidInput)
	}

	l, err := s.get(ctx, link)
	if err != nil {
		return "", err
	}

	return l.Target, nil
}

// ChangeLink renames link to newLink, or to a random token when newLink is empty.
func (s *LinkService) ChangeLink(ctx context.Context, link, password, newLink string) (string, error) {
	in := changeLinkInput{Link: link, Password: password, NewLink: newLink}
	if err := s.validate.Struct(in); err != nil {
		return "", invalidInput(err)
	}

	l, err := s.getForUpdate(ctx, link)
	if err != nil {
		return "", err
	}
	if err := s.authorize(ctx, l, password); err != nil {
		return "", err
	}

	if newLink != "" {
		if s.allocator.IsReserved(newLink) {
			return "", ErrTaken
		}
		if err := s.rename(ctx, link, newLink); err != nil {
			return "", err
		}
		return newLink, nil
	}

	for attempt := 0; attempt < allocateRetries; attempt++ {
		token, err := s.allocator.Allocate(ctx)
		if err != nil {
			return "", fmt.Errorf("error allocating link: %w", err)
		}

		err = s.rename(ctx, link, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrTaken) {
			return "", err
		}
	}

	return "", fmt.Errorf("error allocating link: %w", ErrTaken)
}

// ChangeTarget points link at newTarget.
func (s *LinkService) ChangeTarget(ctx context.Context, link, password, newTarget string) (string, error) {
	in := changeTargetInput{Link: link, Password: password, NewTarget: NormalizeTarget(newTarget)}
	if err := s.validate.Struct(in); err != nil {
		return "", invalidInput(err)
	}

	l, err := s.getForUpdate(ctx, link)
	if err != nil {
		return "", err
	}
	if err := s.authorize(ctx, l, password); err != nil {
		return "", err
	}

	if err := s.storage.UpdateTarget(ctx, link, in.NewTarget); err != nil {
		if errors.Is(err, storage.ErrLinkNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("error updating target: %w", err)
	}

	log.Info().Str("link", link).Msg("Link target changed")
	return in.NewTarget, nil
}

// Delete removes link after a password match.
func (s *LinkService) Delete(ctx context.Context, link, password string) error {
	if err := s.validate.Struct(credentialsInput{Link: link, Password: password}); err != nil {
		return invalidInput(err)
	}

	l, err := s.getForUpdate(ctx, link)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, l, password); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, link); err != nil {
		if errors.Is(err, storage.ErrLinkNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("error deleting link: %w", err)
	}

	log.Info().Str("link", link).Msg("Link deleted")
	return nil
}

// OpenSession exchanges the password of link for a signed session token.
func (s *LinkService) OpenSession(ctx context.Context, link, password string) (string, error) {
	if s.sessions == nil {
		return "", ErrSessionsDisabled
	}
	if err := s.validate.Struct(credentialsInput{Link: link, Password: password}); err != nil {
		return "", invalidInput(err)
	}

	l, err := s.getForUpdate(ctx, link)
	if err != nil {
		return "", err
	}
	if err := s.authorize(ctx, l, password); err != nil {
		return "", err
	}

	token, err := s.sessions.GenerateToken(l.Link, s.sessions.Fingerprint(l.Link, l.Password))
	if err != nil {
		return "", fmt.Errorf("error issuing session: %w", err)
	}
	return token, nil
}

// Ping checks the underlying storage.
func (s *LinkService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

func (s *LinkService) get(ctx context.Context, link string) (model.Link, error) {
	return s.load(ctx, s.storage, link)
}

// getForUpdate reads past any cache: the row's password gates the mutation.
func (s *LinkService) getForUpdate(ctx context.Context, link string) (model.Link, error) {
	return s.load(ctx, s.primary, link)
}

func (s *LinkService) load(ctx context.Context, from storage.LinkStorage, link string) (model.Link, error) {
	l, err := from.Get(ctx, link)
	if err != nil {
		if errors.Is(err, storage.ErrLinkNotFound) {
			return model.Link{}, ErrNotFound
		}
		return model.Link{}, fmt.Errorf("error getting link: %w", err)
	}
	return l, nil
}

func (s *LinkService) rename(ctx context.Context, link, newLink string) error {
	if err := s.storage.Rename(ctx, link, newLink); err != nil {
		switch {
		case errors.Is(err, storage.ErrLinkExists):
			return ErrTaken
		case errors.Is(err, storage.ErrLinkNotFound):
			return ErrNotFound
		}
		return fmt.Errorf("error renaming link: %w", err)
	}

	log.Info().Str("link", link).Str("newLink", newLink).Msg("Link renamed")
	return nil
}

// authorize accepts a session issued for this exact row or a matching password.
func (s *LinkService) authorize(ctx context.Context, l model.Link, password string) error {
	if s.sessionCovers(ctx, l) {
		return nil
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(l.Password)) != 1 {
		return ErrWrongPassword
	}
	return nil
}

func (s *LinkService) sessionCovers(ctx context.Context, l model.Link) bool {
	if s.sessions == nil {
		return false
	}
	session, ok := auth.SessionFromContext(ctx)
	if !ok || session.Link != l.Link {
		return false
	}
	want := s.sessions.Fingerprint(l.Link, l.Password)
	return subtle.ConstantTimeCompare([]byte(session.Fingerprint), []byte(want)) == 1
}

// JoinExtra appends extra to target, inserting a slash when needed.
func JoinExtra(target, extra string) string {
	if extra == "" {
		return target
	}
	if !strings.HasSuffix(target, "/") {
		target += "/"
	}
	return target + extra
}
