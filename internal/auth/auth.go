package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ctxKey string

const ownerIDKey ctxKey = "owner_id"

var ErrUnauthenticated = errors.New("not authenticated")

// Tokens issues and verifies the HS256 session tokens handed to clients.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Issue(ownerID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": ownerID.String(),
		"exp": time.Now().Add(t.ttl).Unix(),
		"iat": time.Now().Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Verify(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}

	ownerID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}

	return ownerID, nil
}

// Middleware rejects requests without a valid Bearer token and stores the
// owner id on the request context for the handlers downstream.
func (t *Tokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing auth token", http.StatusUnauthorized)
			return
		}

		ownerID, err := t.Verify(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func OwnerFromContext(ctx context.Context) (uuid.UUID, error) {
	ownerID, ok := ctx.Value(ownerIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}

	return ownerID, nil
}
