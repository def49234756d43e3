package middleware

import (
	"net/http"
	"strings"

	"github.com/MikhailRaia/pyth/internal/auth"
	"github.com/rs/zerolog/log"
)

// SessionValidator validates management session tokens.
type SessionValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// SessionMiddleware attaches management sessions carried as Bearer tokens.
type SessionMiddleware struct {
	validator SessionValidator
}

// NewSessionMiddleware creates a SessionMiddleware with the provided validator.
func NewSessionMiddleware(validator SessionValidator) *SessionMiddleware {
	return &SessionMiddleware{
		validator: validator,
	}
}

// Authenticate stores the session link in the request context.
// Requests without a token pass through and fall back to passwords;
// an invalid or expired token is rejected.
func (s *SessionMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.validator.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected session token")
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := auth.WithSession(r.Context(), auth.SessionOf(claims))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
