package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/session"
)

const tokenCookie = "portal_token"

// Principal represents the authenticated caller from JWT.
type Principal struct {
	Username string
	Role     session.Role
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext retrieves the principal from context (if any).
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// IssueToken signs a session token for the user, valid for 12 hours.
func IssueToken(secret string, user *session.User) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	claims := jwt.MapClaims{
		"name": user.Username,
		"kind": string(user.Role),
		"exp":  time.Now().Add(12 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// parseRequestToken extracts and validates a token from the Authorization
// header or, failing that, the session cookie.
func parseRequestToken(r *http.Request, secret string) (*Principal, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return nil, errors.New("invalid authorization header")
		}
		return parseJWT(strings.TrimSpace(parts[1]), secret)
	}
	if cookie, err := r.Cookie(tokenCookie); err == nil && cookie.Value != "" {
		return parseJWT(cookie.Value, secret)
	}
	return nil, errors.New("missing authorization")
}

// parseJWT validates and extracts claims from a JWT token.
func parseJWT(tokenStr string, secret string) (*Principal, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	type claims struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
		jwt.RegisteredClaims
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*claims)
	if c == nil || c.Name == "" || c.Kind == "" {
		return nil, errors.New("invalid claims")
	}
	return &Principal{Username: c.Name, Role: session.Role(strings.ToLower(c.Kind))}, nil
}

// requireAuth wraps a handler so that only authenticated requests reach it.
// When roles are given, the principal's role must be one of them.
func (s *Server) requireAuth(next http.HandlerFunc, roles ...session.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parseRequestToken(r, s.config.JWTSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if p.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), p)))
	}
}
