package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/kasuwaapp/kasuwa/internal/config"
	"github.com/kasuwaapp/kasuwa/internal/db"
)

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h.SecurityHeaders(next).ServeHTTP(rec, httptest.NewRequest("GET", "/api/products", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name string
		user *db.User
		want int
	}{
		{name: "no session", user: nil, want: http.StatusUnauthorized},
		{name: "regular user", user: &db.User{ID: uuid.New()}, want: http.StatusForbidden},
		{name: "admin", user: &db.User{ID: uuid.New(), IsAdmin: true}, want: http.StatusNoContent},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/api/orders", nil)
			if tc.user != nil {
				req = req.WithContext(withUser(req.Context(), tc.user))
			}

			rec := httptest.NewRecorder()
			h.RequireAdmin(next).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRequireSameOrigin(t *testing.T) {
	t.Parallel()

	h := &Handlers{config: &config.Config{BaseURL: "https://kasuwa.example"}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		method string
		origin string
		want   int
	}{
		{name: "get passes without origin", method: "GET", want: http.StatusNoContent},
		{name: "post without origin blocked", method: "POST", want: http.StatusForbidden},
		{name: "post from base url allowed", method: "POST", origin: "https://kasuwa.example", want: http.StatusNoContent},
		{name: "post from request host allowed", method: "POST", origin: "http://example.com", want: http.StatusNoContent},
		{name: "cross origin post blocked", method: "POST", origin: "https://evil.example", want: http.StatusForbidden},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tc.method, "/api/orders", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}

			rec := httptest.NewRecorder()
			h.RequireSameOrigin(next).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
