// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/callvault/internal/control/http/problem"
)

func TestStack_PanicBecomesProblem(t *testing.T) {
	r := NewRouter(StackConfig{})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("kaboom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, problem.ContentType, rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL", body["code"])
	assert.NotContains(t, rec.Body.String(), "kaboom")
	assert.Equal(t, rec.Header().Get(problem.HeaderRequestID), body[problem.JSONKeyRequestID])
}

func TestStack_RequestID(t *testing.T) {
	r := NewRouter(StackConfig{})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, rec.Header().Get(problem.HeaderRequestID), 36)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(problem.HeaderRequestID, "abc-123")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(problem.HeaderRequestID))
	})

	t.Run("oversized replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(problem.HeaderRequestID, strings.Repeat("x", maxRequestIDLen+1))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Len(t, rec.Header().Get(problem.HeaderRequestID), 36)
	})
}

func TestStack_RateLimit(t *testing.T) {
	r := NewRouter(StackConfig{EnableRateLimit: true, RateLimit: 2, RateWindow: time.Minute})
	r.Get("/vpi/metadata", func(w http.ResponseWriter, r *http.Request) {})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/vpi/metadata", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "RATE_LIMITED")
}

func TestStack_BodyLimit(t *testing.T) {
	r := NewRouter(StackConfig{MaxBodyBytes: 8})
	r.Post("/fetch-metadata", func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fetch-metadata", strings.NewReader(`{"opco":"CMP"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
