package fixtures

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"localfund/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 12 * time.Hour

type authClaims struct {
	jwt.RegisteredClaims
	Nickname string   `json:"nickname,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

type memberKey struct{}

func memberFrom(ctx context.Context) (model.Member, bool) {
	m, ok := ctx.Value(memberKey{}).(model.Member)
	return m, ok
}

func (s *Server) issueToken(m model.Member) (string, error) {
	now := time.Now()
	claims := authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   m.Email,
			Issuer:    "localfund-fixtures",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		Nickname: m.Nickname,
		Roles:    m.RoleNames,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(tokenString string) (*authClaims, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("access token is invalid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("access token has no subject")
	}
	return claims, nil
}

// authMiddleware resolves the bearer token into a member. Requests without a
// token pass through anonymously; a bad token is always rejected.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			s.writeError(w, http.StatusUnauthorized, "bearer token required")
			return
		}
		claims, err := s.parseToken(strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix)))
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		m, ok := s.store.member(claims.Subject)
		if !ok {
			s.writeError(w, http.StatusUnauthorized, "member no longer exists")
			return
		}
		ctx := context.WithValue(r.Context(), memberKey{}, m)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := memberFrom(r.Context()); !ok {
			s.writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, ok := memberFrom(r.Context())
		if !ok {
			s.writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		if !m.IsAdmin() {
			s.writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
