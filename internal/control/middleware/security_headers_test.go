package middleware

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecurityHeaders_HSTSOnlyForTrustedHTTPS(t *testing.T) {
	trusted, err := ParseCIDRs([]string{"10.0.0.1"})
	if err != nil {
		t.Fatalf("ParseCIDRs: %v", err)
	}
	h := SecurityHeaders("", trusted)(okHandler())

	tests := []struct {
		name       string
		remoteAddr string
		proto      string
		tls        bool
		wantHSTS   bool
	}{
		{name: "plain http", remoteAddr: "192.168.1.50:1234"},
		{name: "forwarded https from untrusted peer", remoteAddr: "192.168.1.50:1234", proto: "https"},
		{name: "forwarded https from trusted proxy", remoteAddr: "10.0.0.1:5678", proto: "https", wantHSTS: true},
		{name: "direct tls", remoteAddr: "192.168.1.50:1234", tls: true, wantHSTS: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://callvault.local/healthz", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get("Strict-Transport-Security") != ""
			if got != tt.wantHSTS {
				t.Errorf("HSTS present = %v, want %v", got, tt.wantHSTS)
			}
		})
	}
}

func TestSecurityHeaders_Defaults(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders("", nil)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"Content-Security-Policy": DefaultCSP,
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestParseCIDRs(t *testing.T) {
	nets, err := ParseCIDRs([]string{"10.0.0.0/8", " ", "::1"})
	if err != nil {
		t.Fatalf("ParseCIDRs: %v", err)
	}
	if len(nets) != 2 {
		t.Fatalf("got %d nets, want 2", len(nets))
	}
	if !IsIPAllowed(net.ParseIP("10.1.2.3"), nets) {
		t.Error("10.1.2.3 should be allowed")
	}
	if !IsIPAllowed(net.ParseIP("::1"), nets) {
		t.Error("::1 should be allowed")
	}
	if IsIPAllowed(net.ParseIP("192.168.0.1"), nets) {
		t.Error("192.168.0.1 should not be allowed")
	}

	if _, err := ParseCIDRs([]string{"not-an-ip"}); err == nil {
		t.Error("expected error for invalid entry")
	}
}
