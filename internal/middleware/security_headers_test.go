package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(SecurityHeadersConfig{Env: "production"})

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	handler(testHandler).ServeHTTP(w, req)

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
	}

	for _, tt := range tests {
		if got := w.Header().Get(tt.header); got != tt.expected {
			t.Errorf("Header %s: got %q, want %q", tt.header, got, tt.expected)
		}
	}
}

func TestSecurityHeaders_HSTSRequiresTLS(t *testing.T) {
	handler := SecurityHeaders(SecurityHeadersConfig{Env: "production"})
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Plain HTTP: no HSTS
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler(testHandler).ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("unexpected HSTS header on plain HTTP: %q", got)
	}

	// Behind a TLS-terminating proxy: HSTS present
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	handler(testHandler).ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got == "" {
		t.Error("Strict-Transport-Security header missing for forwarded HTTPS")
	}
}

func TestSecurityHeaders_NoHSTSInDevelopment(t *testing.T) {
	handler := SecurityHeaders(SecurityHeadersConfig{Env: "development"})
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	handler(testHandler).ServeHTTP(w, req)

	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("unexpected HSTS header in development: %q", got)
	}
}
