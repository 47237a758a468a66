// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Middleware returns an access-log middleware that emits one entry per request.
// It must run after the RequestID middleware so entries carry the request id.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			l := WithComponentFromContext(r.Context(), "http")
			evt := l.Info()
			if status >= http.StatusInternalServerError {
				evt = l.Error()
			} else if status >= http.StatusBadRequest {
				evt = l.Warn()
			}
			evt.
				Str(FieldEvent, "request.handled").
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int(FieldBytes, ww.BytesWritten()).
				Dur(FieldDuration, time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("request handled")
		})
	}
}
