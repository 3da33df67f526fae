// Package auth carries the caller identity handed over by the identity
// provider. Tokens are only verified here, never issued for end users.
package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	XUserIDHeader    = "X-User-Id"
	XUserStaffHeader = "X-User-Staff"
)

var (
	ErrNoPrincipal  = errors.New("unauthenticated")
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the authenticated caller. It is passed explicitly into every
// borrowing operation.
type Principal struct {
	ID           int64
	IsPrivileged bool
}

type Claims struct {
	jwt.RegisteredClaims
	UserID  int64 `json:"user_id"`
	IsStaff bool  `json:"is_staff"`
}

type ctxKey struct{}

func SetAuthContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok {
		return Principal{}, ErrNoPrincipal
	}
	return p, nil
}

// ParseToken verifies an HS256 token signed with key.
func ParseToken(tokenStr string, key []byte) (Principal, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return Principal{}, ErrInvalidToken
	}
	return Principal{ID: claims.UserID, IsPrivileged: claims.IsStaff}, nil
}

// NewToken signs a token for p. Used by tests and the ops CLI.
func NewToken(p Principal, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:  p.ID,
		IsStaff: p.IsPrivileged,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// FromHeaders builds a principal from headers set by a trusted gateway.
func FromHeaders(userID, staff string) (Principal, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil || id <= 0 {
		return Principal{}, ErrNoPrincipal
	}
	isStaff, _ := strconv.ParseBool(staff) //nolint:errcheck
	return Principal{ID: id, IsPrivileged: isStaff}, nil
}
