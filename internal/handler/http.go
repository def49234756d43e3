package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MikhailRaia/pyth/internal/logger"
	"github.com/MikhailRaia/pyth/internal/middleware"
	"github.com/MikhailRaia/pyth/internal/model"
	"github.com/MikhailRaia/pyth/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// PeekCookie switches redirects to the peek page when set to "1".
const PeekCookie = "peek"

type LinkService interface {
	ShortURL(link string) string
	Make(ctx context.Context, link, target, password string) (model.Link, error)
	Resolve(ctx context.Context, link, extra string) (string, error)
	Decode(ctx context.Context, link string) (string, error)
	ChangeLink(ctx context.Context, link, password, newLink string) (string, error)
	ChangeTarget(ctx context.Context, link, password, newTarget string) (string, error)
	Delete(ctx context.Context, link, password string) error
	OpenSession(ctx context.Context, link, password string) (string, error)
}

type DBPinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	linkService LinkService
	dbPinger    DBPinger
	baseURL     string

	sessions    *middleware.SessionMiddleware
	rateLimiter *middleware.RateLimiter
	corsOrigins []string
	trustProxy  bool
}

// Option customises a Handler.
type Option func(*Handler)

// WithSessions accepts Bearer session tokens on mutating routes.
func WithSessions(sessions *middleware.SessionMiddleware) Option {
	return func(h *Handler) {
		h.sessions = sessions
	}
}

// WithRateLimiter throttles mutating routes per client address.
func WithRateLimiter(limiter *middleware.RateLimiter) Option {
	return func(h *Handler) {
		h.rateLimiter = limiter
	}
}

// WithTrustedProxy takes the client address from X-Forwarded-For and
// X-Real-IP. Enable it only behind a reverse proxy that sets them.
func WithTrustedProxy() Option {
	return func(h *Handler) {
		h.trustProxy = true
	}
}

// WithCORSOrigins sets the origins allowed to call the JSON API.
func WithCORSOrigins(origins ...string) Option {
	return func(h *Handler) {
		h.corsOrigins = origins
	}
}

func NewHandler(linkService LinkService, dbPinger DBPinger, baseURL string, opts ...Option) *Handler {
	h := &Handler{
		linkService: linkService,
		dbPinger:    dbPinger,
		baseURL:     baseURL,
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	if h.trustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)

	r.Use(logger.RequestLogger)

	r.Use(middleware.GzipReader)
	r.Use(middleware.GzipMiddleware)

	r.Get("/", h.handleIndex)
	r.Get("/decoder", h.handleDecoder)
	r.Get("/toggle-peek", h.handleTogglePeek)
	r.Get("/ping", h.handlePing)
	r.Get("/decode", h.handleDecode)

	r.Group(func(r chi.Router) {
		h.useMutating(r)

		r.Get("/make", h.handleMake)
		r.Get("/delete", h.handleDelete)
		r.Get("/change-link", h.handleChangeLink)
		r.Get("/change-target", h.handleChangeTarget)
	})

	r.Route("/api/links", h.registerAPIRoutes)

	r.Get("/peek/{link}", h.handlePeek)
	r.Get("/peek/{link}/*", h.handlePeek)
	r.Get("/{link}", h.handleRedirect)
	r.Get("/{link}/*", h.handleRedirect)

	return r
}

func (h *Handler) useMutating(r chi.Router) {
	if h.rateLimiter != nil {
		r.Use(h.rateLimiter.Limit)
	}
	if h.sessions != nil {
		r.Use(h.sessions.Authenticate)
	}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	peek := "Off"
	if peekEnabled(r) {
		peek = "On"
	}

	writeText(w, http.StatusOK, fmt.Sprintf(
		"pyth link shortener\n\npeek: %s (toggle at /toggle-peek)\n\n"+
			"make:          /make?link=&target=&password=\n"+
			"change link:   /change-link?link=&password=&new_link=\n"+
			"change target: /change-target?link=&password=&new_target=\n"+
			"delete:        /delete?link=&password=\n"+
			"decode:        /decode?link=\n",
		peek))
}

func (h *Handler) handleDecoder(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "decode a link without following it: /decode?link=<link>\n")
}

func (h *Handler) handleTogglePeek(w http.ResponseWriter, r *http.Request) {
	value := "1"
	if peekEnabled(r) {
		value = "0"
	}

	http.SetCookie(w, &http.Cookie{
		Name:  PeekCookie,
		Value: value,
		Path:  "/",
	})

	http.Redirect(w, r, h.baseURL, http.StatusFound)
}

func (h *Handler) handleMake(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	l, err := h.linkService.Make(r.Context(), q.Get("link"), q.Get("target"), q.Get("password"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeText(w, http.StatusCreated, h.linkService.ShortURL(l.Link))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if err := h.linkService.Delete(r.Context(), q.Get("link"), q.Get("password")); err != nil {
		writeError(w, err)
		return
	}

	writeText(w, http.StatusOK, "removed")
}

func (h *Handler) handleChangeLink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	newLink, err := h.linkService.ChangeLink(r.Context(), q.Get("link"), q.Get("password"), q.Get("new_link"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeText(w, http.StatusOK, h.linkService.ShortURL(newLink))
}

func (h *Handler) handleChangeTarget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	target, err := h.linkService.ChangeTarget(r.Context(), q.Get("link"), q.Get("password"), q.Get("new_target"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeText(w, http.StatusOK, target)
}

func (h *Handler) handleDecode(w http.ResponseWriter, r *http.Request) {
	target, err := h.linkService.Decode(r.Context(), r.URL.Query().Get("link"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeText(w, http.StatusOK, target)
}

func (h *Handler) handlePeek(w http.ResponseWriter, r *http.Request) {
	link := chi.URLParam(r, "link")

	target, err := h.linkService.Resolve(r.Context(), link, chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeText(w, http.StatusOK, link+" -> "+target)
}

func (h *Handler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	link := chi.URLParam(r, "link")
	extra := chi.URLParam(r, "*")

	if peekEnabled(r) {
		peekPath := "/peek/" + url.PathEscape(link)
		if extra != "" {
			peekPath += "/" + escapeSegments(extra)
		}
		http.Redirect(w, r, peekPath, http.StatusFound)
		return
	}

	target, err := h.linkService.Resolve(r.Context(), link, extra)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusMovedPermanently)
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	if h.dbPinger == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	err := h.dbPinger.Ping(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Storage ping failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// escapeSegments escapes each segment of a slash separated path.
func escapeSegments(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func peekEnabled(r *http.Request) bool {
	cookie, err := r.Cookie(PeekCookie)
	return err == nil && cookie.Value == "1"
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrWrongPassword):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrSessionsDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	writeText(w, status, errorMessage(status, err))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
