package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidtube/vidtube/internal/httputil"
)

type contextKey string

const userIDKey contextKey = "userID"

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// Middleware rejects requests without a valid access token.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := accessTokenFromRequest(r)
		if !ok {
			httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized request")
			return
		}

		claims, err := ValidateToken(h.jwtSecret, tokenStr)
		if err != nil || claims.TokenType != "access" {
			httputil.WriteError(w, http.StatusUnauthorized, "Invalid access token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.UserID)))
	})
}

// OptionalMiddleware attaches the caller when a valid access token is
// present and lets anonymous requests through otherwise.
func (h *Handler) OptionalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokenStr, ok := accessTokenFromRequest(r); ok {
			if claims, err := ValidateToken(h.jwtSecret, tokenStr); err == nil && claims.TokenType == "access" {
				r = r.WithContext(ContextWithUserID(r.Context(), claims.UserID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func accessTokenFromRequest(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		return token, found && token != ""
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
