package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"chargehub/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// Auth validates bearer JWTs and places the caller's Identity (user id plus
// role) into the request context. Core operations receive the identity
// explicitly; nothing reads ambient session state.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimSpace(parts[1])
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenInvalidClaims
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			identity, err := extractIdentity(claims)
			if err != nil {
				http.Error(w, "identity not found in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractIdentity(claims jwt.MapClaims) (models.Identity, error) {
	var userID int64
	switch v := claims["user_id"].(type) {
	case float64:
		userID = int64(v)
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return models.Identity{}, err
		}
		userID = parsed
	default:
		return models.Identity{}, fmt.Errorf("user_id not present")
	}

	role, _ := claims["role"].(string)
	switch role {
	case models.RoleUser, models.RoleOwner, models.RoleAdmin:
	default:
		return models.Identity{}, fmt.Errorf("unknown role %q", role)
	}

	return models.Identity{UserID: userID, Role: role}, nil
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	val := ctx.Value(identityKey)
	if val == nil {
		return models.Identity{}, false
	}
	identity, ok := val.(models.Identity)
	return identity, ok
}
