// Package auth resolves the acting user from a signed bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ledger/internal/core"
)

// CookieName is checked when no Authorization header is present.
const CookieName = "ledger_token"

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidToken    = errors.New("invalid or expired token")
)

// Claims is the token payload.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Resolver verifies HS256 tokens and yields the user they were issued for.
type Resolver struct {
	secret []byte
	now    func() time.Time
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secret: []byte(secret), now: time.Now}
}

// Resolve reads the bearer token from the Authorization header, falling back
// to the ledger_token cookie. Missing tokens yield ErrUnauthenticated and bad
// ones ErrInvalidToken.
func (r *Resolver) Resolve(req *http.Request) (core.UserID, error) {
	token := bearerToken(req)
	if token == "" {
		return 0, ErrUnauthenticated
	}
	claims, err := r.ParseToken(token)
	if err != nil {
		return 0, err
	}
	return core.UserID(claims.UserID), nil
}

// ParseToken verifies signature, algorithm and expiry.
func (r *Resolver) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateToken signs a token for user. Tokens are normally issued by the
// identity service; this exists for local tooling and tests.
func GenerateToken(secret string, user core.UserID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := &Claims{
		UserID: int64(user),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func bearerToken(req *http.Request) string {
	if header := req.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := req.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

type contextKey struct{}

// WithUser stores the resolved user in ctx.
func WithUser(ctx context.Context, user core.UserID) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFrom returns the user stored by WithUser.
func UserFrom(ctx context.Context) (core.UserID, bool) {
	user, ok := ctx.Value(contextKey{}).(core.UserID)
	return user, ok
}
