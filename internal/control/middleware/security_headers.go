// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// DefaultCSP forbids all active content; the service only serves JSON and media.
const DefaultCSP = "default-src 'none'; media-src 'self'; frame-ancestors 'none'"

// ParseCIDRs parses a list of CIDRs or bare IPs.
func ParseCIDRs(values []string) ([]*net.IPNet, error) {
	out := make([]*net.IPNet, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "/") {
			ip := net.ParseIP(v)
			if ip == nil {
				return nil, fmt.Errorf("invalid IP %q", v)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			v = fmt.Sprintf("%s/%d", ip.String(), bits)
		}
		_, n, err := net.ParseCIDR(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", v, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// IsIPAllowed reports whether ip lies in any of nets.
func IsIPAllowed(ip net.IP, nets []*net.IPNet) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// SecurityHeaders adds common security headers to every response. HSTS is
// only sent for TLS requests or X-Forwarded-Proto https from trustedProxies.
func SecurityHeaders(csp string, trustedProxies []*net.IPNet) func(http.Handler) http.Handler {
	if csp == "" {
		csp = DefaultCSP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isHTTPS := r.TLS != nil
			if !isHTTPS && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
				host, _, err := net.SplitHostPort(r.RemoteAddr)
				if err != nil {
					host = r.RemoteAddr
				}
				if ip := net.ParseIP(host); ip != nil && IsIPAllowed(ip, trustedProxies) {
					isHTTPS = true
				}
			}
			if isHTTPS {
				w.Header().Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
			}
			w.Header().Set("Content-Security-Policy", csp)
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			next.ServeHTTP(w, r)
		})
	}
}
