package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/smanilla/mindtrack/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey int

const contextKeyUser contextKey = iota

// UserLookup loads the authenticated user.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// Auth validates HS256 bearer tokens whose "id" (or "sub") claim names a user.
type Auth struct {
	secret []byte
	users  UserLookup
	logger *zap.Logger
}

func NewAuth(secret string, users UserLookup, logger *zap.Logger) *Auth {
	return &Auth{secret: []byte(secret), users: users, logger: logger}
}

// Require rejects requests without a valid token with 401 and otherwise
// stores the user in the request context.
func (a *Auth) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err != nil {
			a.logger.Debug("Rejected request", zap.String("path", r.URL.Path), zap.Error(err))
			writeError(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), contextKeyUser, user)))
	}
}

func (a *Auth) authenticate(r *http.Request) (*models.User, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("jwt secret not configured")
	}
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenMalformed
	}
	id, _ := claims["id"].(string)
	if id == "" {
		id, _ = claims["sub"].(string)
	}
	if id == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return a.users.GetUser(r.Context(), id)
}

// userFromContext the user stored by Require, or nil.
func userFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(contextKeyUser).(*models.User)
	return u
}
