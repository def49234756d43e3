package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MikhailRaia/pyth/internal/model"
	"github.com/MikhailRaia/pyth/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type mockLinkService struct {
	makeFunc         func(ctx context.Context, link, target, password string) (model.Link, error)
	resolveFunc      func(ctx context.Context, link, extra string) (string, error)
	decodeFunc       func(ctx context.Context, link string) (string, error)
	changeLinkFunc   func(ctx context.Context, link, password, newLink string) (string, error)
	changeTargetFunc func(ctx context.Context, link, password, newTarget string) (string, error)
	deleteFunc       func(ctx context.Context, link, password string) error
	openSessionFunc  func(ctx context.Context, link, password string) (string, error)
}

func (m *mockLinkService) ShortURL(link string) string {
	return "http://localhost:8080/" + link
}

func (m *mockLinkService) Make(ctx context.Context, link, target, password string) (model.Link, error) {
	return m.makeFunc(ctx, link, target, password)
}

func (m *mockLinkService) Resolve(ctx context.Context, link, extra string) (string, error) {
	return m.resolveFunc(ctx, link, extra)
}

func (m *mockLinkService) Decode(ctx context.Context, link string) (string, error) {
	return m.decodeFunc(ctx, link)
}

func (m *mockLinkService) ChangeLink(ctx context.Context, link, password, newLink string) (string, error) {
	return m.changeLinkFunc(ctx, link, password, newLink)
}

func (m *mockLinkService) ChangeTarget(ctx context.Context, link, password, newTarget string) (string, error) {
	return m.changeTargetFunc(ctx, link, password, newTarget)
}

func (m *mockLinkService) Delete(ctx context.Context, link, password string) error {
	return m.deleteFunc(ctx, link, password)
}

func (m *mockLinkService) OpenSession(ctx context.Context, link, password string) (string, error) {
	return m.openSessionFunc(ctx, link, password)
}

type mockPinger struct {
	err error
}

func (m mockPinger) Ping(context.Context) error {
	return m.err
}

func withLinkParams(req *http.Request, link, extra string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("link", link)
	if extra != "" {
		rctx.URLParams.Add("*", extra)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandler_handleMake(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		mockLink   model.Link
		mockErr    error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "Created",
			query:      "?link=abc&target=example.com&password=pw",
			mockLink:   model.Link{Link: "abc", Target: "http://example.com"},
			wantStatus: http.StatusCreated,
			wantBody:   "http://localhost:8080/abc",
		},
		{
			name:       "Taken",
			query:      "?link=make&target=example.com&password=pw",
			mockErr:    service.ErrTaken,
			wantStatus: http.StatusConflict,
			wantBody:   service.ErrTaken.Error(),
		},
		{
			name:       "Invalid input",
			query:      "?target=example.com",
			mockErr:    service.ErrInvalidInput,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Storage failure",
			query:      "?target=example.com&password=pw",
			mockErr:    errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLink, gotTarget, gotPassword string
			mockService := &mockLinkService{
				makeFunc: func(_ context.Context, link, target, password string) (model.Link, error) {
					gotLink, gotTarget, gotPassword = link, target, password
					return tt.mockLink, tt.mockErr
				},
			}
			h := NewHandler(mockService, nil, "http://localhost:8080")

			rr := httptest.NewRecorder()
			h.handleMake(rr, httptest.NewRequest(http.MethodGet, "/make"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rr.Body.String())
			}
			if tt.name == "Created" {
				assert.Equal(t, "abc", gotLink)
				assert.Equal(t, "example.com", gotTarget)
				assert.Equal(t, "pw", gotPassword)
			}
		})
	}
}

func TestHandler_handleRedirect(t *testing.T) {
	tests := []struct {
		name         string
		link         string
		extra        string
		peek         bool
		mockTarget   string
		mockErr      error
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "Redirect",
			link:         "gh",
			mockTarget:   "https://github.com",
			wantStatus:   http.StatusMovedPermanently,
			wantLocation: "https://github.com",
		},
		{
			name:         "Redirect with extra path",
			link:         "gh",
			extra:        "golang/go",
			mockTarget:   "https://github.com/golang/go",
			wantStatus:   http.StatusMovedPermanently,
			wantLocation: "https://github.com/golang/go",
		},
		{
			name:         "Peek cookie",
			link:         "gh",
			peek:         true,
			wantStatus:   http.StatusFound,
			wantLocation: "/peek/gh",
		},
		{
			name:         "Peek cookie with extra path",
			link:         "gh",
			extra:        "golang",
			peek:         true,
			wantStatus:   http.StatusFound,
			wantLocation: "/peek/gh/golang",
		},
		{
			name:         "Peek cookie escapes extra segments",
			link:         "gh",
			extra:        "a?b/c#d/e f",
			peek:         true,
			wantStatus:   http.StatusFound,
			wantLocation: "/peek/gh/a%3Fb/c%23d/e%20f",
		},
		{
			name:       "Not found",
			link:       "missing",
			mockErr:    service.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotExtra string
			mockService := &mockLinkService{
				resolveFunc: func(_ context.Context, link, extra string) (string, error) {
					gotExtra = extra
					return tt.mockTarget, tt.mockErr
				},
			}
			h := NewHandler(mockService, nil, "http://localhost:8080")

			req := httptest.NewRequest(http.MethodGet, "/"+tt.link, nil)
			if tt.peek {
				req.AddCookie(&http.Cookie{Name: PeekCookie, Value: "1"})
			}
			req = withLinkParams(req, tt.link, tt.extra)

			rr := httptest.NewRecorder()
			h.handleRedirect(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantLocation, rr.Header().Get("Location"))
			if !tt.peek {
				assert.Equal(t, tt.extra, gotExtra)
			}
		})
	}
}

func TestHandler_handlePeek(t *testing.T) {
	mockService := &mockLinkService{
		resolveFunc: func(_ context.Context, link, extra string) (string, error) {
			return "https://github.com/" + extra, nil
		},
	}
	h := NewHandler(mockService, nil, "http://localhost:8080")

	req := withLinkParams(httptest.NewRequest(http.MethodGet, "/peek/gh/golang", nil), "gh", "golang")
	rr := httptest.NewRecorder()
	h.handlePeek(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gh -> https://github.com/golang", rr.Body.String())
}

func TestHandler_handleTogglePeek(t *testing.T) {
	tests := []struct {
		name      string
		cookie    string
		wantValue string
	}{
		{name: "No cookie", cookie: "", wantValue: "1"},
		{name: "Off", cookie: "0", wantValue: "1"},
		{name: "On", cookie: "1", wantValue: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&mockLinkService{}, nil, "http://localhost:8080")

			req := httptest.NewRequest(http.MethodGet, "/toggle-peek", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: PeekCookie, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			h.handleTogglePeek(rr, req)

			assert.Equal(t, http.StatusFound, rr.Code)
			assert.Equal(t, "http://localhost:8080", rr.Header().Get("Location"))

			cookies := rr.Result().Cookies()
			if assert.Len(t, cookies, 1) {
				assert.Equal(t, PeekCookie, cookies[0].Name)
				assert.Equal(t, tt.wantValue, cookies[0].Value)
			}
		})
	}
}

func TestHandler_handleIndex(t *testing.T) {
	h := NewHandler(&mockLinkService{}, nil, "http://localhost:8080")

	rr := httptest.NewRecorder()
	h.handleIndex(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rr.Body.String(), "peek: Off")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: PeekCookie, Value: "1"})
	rr = httptest.NewRecorder()
	h.handleIndex(rr, req)
	assert.Contains(t, rr.Body.String(), "peek: On")
}

func TestHandler_mutations(t *testing.T) {
	mockService := &mockLinkService{
		changeLinkFunc: func(_ context.Context, link, password, newLink string) (string, error) {
			if password != "pw" {
				return "", service.ErrWrongPassword
			}
			return newLink, nil
		},
		changeTargetFunc: func(_ context.Context, link, password, newTarget string) (string, error) {
			return "http://" + newTarget, nil
		},
		deleteFunc: func(_ context.Context, link, password string) error {
			if link == "missing" {
				return service.ErrNotFound
			}
			return nil
		},
		decodeFunc: func(_ context.Context, link string) (string, error) {
			if link == "" {
				return "", service.ErrInvalidInput
			}
			return "https://example.com", nil
		},
	}
	h := NewHandler(mockService, nil, "http://localhost:8080")

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		target     string
		wantStatus int
		wantBody   string
	}{
		{"Change link", h.handleChangeLink, "/change-link?link=abc&password=pw&new_link=xyz", http.StatusOK, "http://localhost:8080/xyz"},
		{"Change link wrong password", h.handleChangeLink, "/change-link?link=abc&password=no&new_link=xyz", http.StatusForbidden, "wrong password"},
		{"Change target", h.handleChangeTarget, "/change-target?link=abc&password=pw&new_target=example.org", http.StatusOK, "http://example.org"},
		{"Delete", h.handleDelete, "/delete?link=abc&password=pw", http.StatusOK, "removed"},
		{"Delete missing", h.handleDelete, "/delete?link=missing&password=pw", http.StatusNotFound, "link not found"},
		{"Decode", h.handleDecode, "/decode?link=abc", http.StatusOK, "https://example.com"},
		{"Decode without link", h.handleDecode, "/decode", http.StatusBadRequest, "invalid input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.handler(rr, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestHandler_handlePing(t *testing.T) {
	tests := []struct {
		name       string
		pinger     DBPinger
		wantStatus int
	}{
		{name: "Healthy", pinger: mockPinger{}, wantStatus: http.StatusOK},
		{name: "Unhealthy", pinger: mockPinger{err: errors.New("down")}, wantStatus: http.StatusInternalServerError},
		{name: "No pinger", pinger: nil, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&mockLinkService{}, tt.pinger, "http://localhost:8080")

			rr := httptest.NewRecorder()
			h.handlePing(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(service.ErrInvalidInput))
	assert.Equal(t, http.StatusForbidden, statusFor(service.ErrWrongPassword))
	assert.Equal(t, http.StatusNotFound, statusFor(service.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(service.ErrTaken))
	assert.Equal(t, http.StatusNotImplemented, statusFor(service.ErrSessionsDisabled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
