package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/de-tools/orchard-atlas/pkg/handlers/render"
	"github.com/rs/zerolog"
)

const UserHeader = "X-User-ID"

type userKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserID returns the authenticated user, or "" when the request carries none.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// Auth resolves the caller from the X-User-ID header or an "Authorization: Bearer <uid>" header
// and rejects requests that carry neither. Identity is asserted by the fronting auth provider.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		userID := strings.TrimSpace(req.Header.Get(UserHeader))
		if userID == "" {
			if token, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer "); ok {
				userID = strings.TrimSpace(token)
			}
		}
		if userID == "" {
			render.Error(w, req, http.StatusUnauthorized, render.SignInMessage)
			return
		}

		ctx := WithUserID(req.Context(), userID)
		zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user_id", userID)
		})
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}
