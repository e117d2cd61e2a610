// Package api implements the local console API using chi.
package api

import (
	"context"
	"net/http"
	"strings"
)

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type userIDKey struct{}

// requireSession rejects requests while nobody is signed in and stores the
// signed-in user id in the request context.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds, err := h.session.Credentials()
		if err != nil {
			h.fail(w, r, "Nejste přihlášeni", err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey{}, creds.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey{}).(string)
	return id
}

// requireDevMode hides the developer panels while developer mode is off.
func (h *Handler) requireDevMode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.session.State().DevMode {
			writeJSON(w, http.StatusForbidden, errorBody("developer mode is off"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
