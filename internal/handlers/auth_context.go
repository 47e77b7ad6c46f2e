package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/kasuwaapp/kasuwa/internal/auth"
	"github.com/kasuwaapp/kasuwa/internal/db"
)

type userContextKey struct{}

func withUser(ctx context.Context, user *db.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

func userFromContext(ctx context.Context) *db.User {
	user, _ := ctx.Value(userContextKey{}).(*db.User)
	return user
}

// RequireAuth resolves the session cookie to an account and stores it
// in the request context. Requests without a valid session get 401.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			h.writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}

		userID, err := h.tokens.Verify(cookie.Value)
		if err != nil {
			h.tokens.ClearCookie(w)
			h.writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "invalid session"})
			return
		}

		user, err := h.userStore.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				h.tokens.ClearCookie(w)
				h.writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "invalid session"})
				return
			}
			h.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// RequireAdmin allows only authenticated admin accounts through. It
// must run inside RequireAuth.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())
		if user == nil {
			h.writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		if !user.IsAdmin {
			h.writeJSON(w, r, http.StatusForbidden, errorResponse{Error: "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
