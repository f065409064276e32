package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Access levels a token can grant on a project, in increasing order of
// privilege.
const (
	Read  = "read"
	Write = "write"
	Admin = "admin"
)

var levelRank = map[string]int{Read: 1, Write: 2, Admin: 3}

// Claims carries the IAM token claims the service acts on. Projects maps
// project ids (decimal strings, as the IAM service serializes them) to the
// granted access level.
type Claims struct {
	Projects map[string]string `json:"prj"`
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	jwt.RegisteredClaims

	// Authenticated distinguishes a verified token from anonymous access.
	Authenticated bool `json:"-"`
}

// Anonymous returns the claims assumed for requests carrying no token.
// Anonymous callers can only touch public data.
func Anonymous() *Claims {
	return &Claims{Projects: map[string]string{}}
}

func (c *Claims) hasLevel(projectID int64, required string) bool {
	granted, ok := c.Projects[strconv.FormatInt(projectID, 10)]
	if !ok {
		return false
	}
	return levelRank[granted] >= levelRank[required]
}

func (c *Claims) CanRead(projectID int64) bool {
	return c.hasLevel(projectID, Read)
}

func (c *Claims) CanWrite(projectID int64) bool {
	return c.hasLevel(projectID, Write)
}

// ReadableProjects lists every project id the token grants at least read
// access to, in ascending order.
func (c *Claims) ReadableProjects() []int64 {
	ids := make([]int64, 0, len(c.Projects))
	for id := range c.Projects {
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, parsed)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate parses and verifies an RS512 token string against the IAM
// signing key.
func Validate(token string, key *rsa.PublicKey) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS512.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("error verifying token: %w", err)
	}
	if claims.Projects == nil {
		claims.Projects = map[string]string{}
	}
	claims.Authenticated = true
	return claims, nil
}

type claimsKey struct{}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext returns the request claims, or anonymous claims when the
// middleware did not run.
func FromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsKey{}).(*Claims); ok {
		return claims
	}
	return Anonymous()
}

// Middleware verifies the Authorization header and stores the resulting
// claims on the request context. Requests without a header proceed as
// anonymous; malformed or invalid tokens are rejected outright.
func Middleware(key *rsa.PublicKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), Anonymous())))
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "malformed authorization header, expected 'Bearer <token>'", http.StatusUnauthorized)
				return
			}
			claims, err := Validate(token, key)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
