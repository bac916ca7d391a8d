package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/markethub/review-service/internal/platform/logger"
)

// UserIDKeyType is a custom type for the user ID context key to avoid collisions.
type UserIDKeyType string

// UserRoleKeyType is a custom type for the user role context key.
type UserRoleKeyType string

const (
	// UserIDKey is the key used to store and retrieve the authenticated UserID from the context.
	UserIDKey UserIDKeyType = "authenticatedUserID"
	// UserRoleKey is the key used to store and retrieve the authenticated user's role from the context.
	UserRoleKey UserRoleKeyType = "authenticatedUserRole"
)

// RoleAdmin is the role required by the administrative API surface.
const RoleAdmin = "admin"

// Claims defines the structure of the JWT claims expected from the token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the authenticated user ID stored in the context, if any.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

// UserRole returns the authenticated user's role stored in the context.
func UserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok && role != ""
}

// Authenticate validates the bearer token and stores the user identity in
// the request context. Requests without a valid token are rejected.
func Authenticate(jwtSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Authenticate: 'Authorization' header not found", zap.String("path", r.URL.Path))
				writeAuthError(w, http.StatusUnauthorized, "authorization token is not provided")
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("Authenticate: invalid 'Authorization' header format", zap.String("path", r.URL.Path))
				writeAuthError(w, http.StatusUnauthorized, "authorization token format is invalid, expected 'Bearer <token>'")
				return
			}
			tokenString := parts[1]

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					log.Error("Authenticate: unexpected signing method", zap.Any("algorithm", token.Header["alg"]))
					return nil, errors.New("unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil {
				log.Warn("Authenticate: token parsing/validation failed", zap.String("path", r.URL.Path), zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					writeAuthError(w, http.StatusUnauthorized, "token has expired")
					return
				}
				writeAuthError(w, http.StatusUnauthorized, "token is invalid")
				return
			}
			if !token.Valid {
				log.Warn("Authenticate: token is not valid", zap.String("path", r.URL.Path))
				writeAuthError(w, http.StatusUnauthorized, "token is not valid")
				return
			}
			if claims.UserID == "" {
				log.Error("Authenticate: UserID not found in token claims", zap.String("path", r.URL.Path))
				writeAuthError(w, http.StatusUnauthorized, "user identity not found in token claims")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)

			log.Debug("Authenticate: user authenticated",
				zap.String("path", r.URL.Path),
				zap.String("user_id", claims.UserID),
				zap.String("role", claims.Role))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route tree behind a role carried in the token claims.
// It must run after Authenticate.
func RequireRole(role string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole, ok := UserRole(r.Context())
			if !ok || userRole != role {
				userID, _ := UserID(r.Context())
				log.Warn("RequireRole: user does not have required role",
					zap.String("path", r.URL.Path),
					zap.String("user_id", userID),
					zap.String("user_role", userRole),
					zap.String("required_role", role))
				writeAuthError(w, http.StatusForbidden, "user role '"+userRole+"' not authorized for this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	code := "UNAUTHENTICATED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	_, _ = w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
