package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		credentials bool
		wantOrigin  string
		wantCreds   string
	}{
		{name: "wildcard reflects origin", allowed: []string{"*"}, origin: "https://ops.example.com", wantOrigin: "https://ops.example.com"},
		{name: "no origin header", allowed: []string{"*"}, origin: ""},
		{name: "listed origin", allowed: []string{"https://ops.example.com"}, origin: "https://ops.example.com", credentials: true, wantOrigin: "https://ops.example.com", wantCreds: "true"},
		{name: "unlisted origin", allowed: []string{"https://ops.example.com"}, origin: "https://evil.example.com", credentials: true},
		{name: "credentials off", allowed: []string{"*"}, origin: "https://ops.example.com", wantOrigin: "https://ops.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/vpi/metadata", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed, tt.credentials)(okHandler()).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCreds)
			}
			if got := rec.Header().Get("Vary"); !strings.Contains(got, "Origin") {
				t.Errorf("Vary = %q, want it to contain Origin", got)
			}
		})
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/download-recordings", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	rec := httptest.NewRecorder()
	CORS([]string{"*"}, false)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if called {
		t.Fatal("preflight reached the handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("Allow-Methods = %q", got)
	}
}
