package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"
	"github.com/rs/zerolog/log"
)

type MakeRequest struct {
	Link     string `json:"link"`
	Target   string `json:"target"`
	Password string `json:"password"`
}

type LinkResponse struct {
	Link     string `json:"link"`
	ShortURL string `json:"short_url"`
	Target   string `json:"target,omitempty"`
}

type ChangeLinkRequest struct {
	Password string `json:"password"`
	NewLink  string `json:"new_link"`
}

type ChangeTargetRequest struct {
	Password  string `json:"password"`
	NewTarget string `json:"new_target"`
}

type CredentialsRequest struct {
	Password string `json:"password"`
}

type SessionResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) registerAPIRoutes(r chi.Router) {
	r.Use(handlers.CORS(
		handlers.AllowedOrigins(h.corsOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	))

	r.Get("/{link}", h.handleDecodeJSON)

	r.Group(func(r chi.Router) {
		h.useMutating(r)

		r.Post("/", h.HandleMakeJSON)
		r.Put("/{link}/link", h.handleChangeLinkJSON)
		r.Put("/{link}/target", h.handleChangeTargetJSON)
		r.Delete("/{link}", h.handleDeleteJSON)
		r.Post("/{link}/session", h.handleOpenSessionJSON)
	})
}

func (h *Handler) HandleMakeJSON(w http.ResponseWriter, r *http.Request) {
	var request MakeRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	l, err := h.linkService.Make(r.Context(), request.Link, request.Target, request.Password)
	if err != nil {
		writeJSONError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, LinkResponse{
		Link:     l.Link,
		ShortURL: h.linkService.ShortURL(l.Link),
		Target:   l.Target,
	})
}

func (h *Handler) handleDecodeJSON(w http.ResponseWriter, r *http.Request) {
	link := chi.URLParam(r, "link")

	target, err := h.linkService.Decode(r.Context(), link)
	if err != nil {
		writeJSONError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LinkResponse{
		Link:     link,
		ShortURL: h.linkService.ShortURL(link),
		Target:   target,
	})
}

func (h *Handler) handleChangeLinkJSON(w http.ResponseWriter, r *http.Request) {
	var request ChangeLinkRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	newLink, err := h.linkService.ChangeLink(r.Context(), chi.URLParam(r, "link"), request.Password, request.NewLink)
	if err != nil {
		writeJSONError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LinkResponse{
		Link:     newLink,
		ShortURL: h.linkService.ShortURL(newLink),
	})
}

func (h *Handler) handleChangeTargetJSON(w http.ResponseWriter, r *http.Request) {
	var request ChangeTargetRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	link := chi.URLParam(r, "link")
	target, err := h.linkService.ChangeTarget(r.Context(), link, request.Password, request.NewTarget)
	if err != nil {
		writeJSONError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LinkResponse{
		Link:     link,
		ShortURL: h.linkService.ShortURL(link),
		Target:   target,
	})
}

func (h *Handler) handleDeleteJSON(w http.ResponseWriter, r *http.Request) {
	var request CredentialsRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &request) {
		return
	}

	if err := h.linkService.Delete(r.Context(), chi.URLParam(r, "link"), request.Password); err != nil {
		writeJSONError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOpenSessionJSON(w http.ResponseWriter, r *http.Request) {
	var request CredentialsRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	token, err := h.linkService.OpenSession(r.Context(), chi.URLParam(r, "link"), request.Password)
	if err != nil {
		writeJSONError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{Token: token, TokenType: "Bearer"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	contentType := r.Header.Get("Content-Type")
	contentEncoding := r.Header.Get("Content-Encoding")

	if contentEncoding != "gzip" && !strings.Contains(contentType, "application/json") {
		writeJSON(w, http.StatusUnsupportedMediaType, ErrorResponse{Error: "expected application/json"})
		return false
	}

	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

func writeJSONError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: errorMessage(status, err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	response, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}
