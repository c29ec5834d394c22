package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS_AllowedOrigin(t *testing.T) {
	handler := CORS(DefaultCORSConfig([]string{"http://localhost:3000"}))

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler(testHandler).ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin: got %q", got)
	}
}

func TestCORS_UnknownOrigin(t *testing.T) {
	handler := CORS(DefaultCORSConfig([]string{"http://localhost:3000"}))

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/posts", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w := httptest.NewRecorder()

	handler(testHandler).ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Access-Control-Allow-Origin for unknown origin: %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(DefaultCORSConfig([]string{"http://localhost:3000"}))

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	})

	req := httptest.NewRequest("OPTIONS", "/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler(testHandler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("preflight status: got %d, want %d", w.Code, http.StatusOK)
	}
}
