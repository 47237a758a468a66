// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes the recordings service over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/callvault/internal/config"
	"github.com/ManuGH/callvault/internal/control/http/problem"
	"github.com/ManuGH/callvault/internal/control/middleware"
	"github.com/ManuGH/callvault/internal/health"
	"github.com/ManuGH/callvault/internal/recordings"
)

// Server wires handlers to the recordings service.
type Server struct {
	svc    *recordings.Service
	health *health.Manager
	stack  middleware.StackConfig
	// serveMetrics mounts /metrics on the API router.
	serveMetrics bool
}

// StackFromConfig derives the middleware stack from cfg.
func StackFromConfig(cfg config.AppConfig) (middleware.StackConfig, error) {
	proxies, err := middleware.ParseCIDRs(cfg.Server.TrustedProxies)
	if err != nil {
		return middleware.StackConfig{}, fmt.Errorf("server.trustedProxies: %w", err)
	}
	stack := middleware.StackConfig{
		EnableCORS:            len(cfg.CORS.AllowedOrigins) > 0,
		AllowedOrigins:        cfg.CORS.AllowedOrigins,
		EnableSecurityHeaders: true,
		TrustedProxies:        proxies,
		EnableMetrics:         true,
		EnableLogging:         true,
		EnableRateLimit:       cfg.RateLimit.Enabled,
		RateLimit:             cfg.RateLimit.Limit,
		RateWindow:            cfg.RateLimit.Window,
		MaxBodyBytes:          cfg.Server.MaxBodyBytes,
	}
	if cfg.Telemetry.Enabled {
		stack.TracingService = cfg.Log.Service
	}
	return stack, nil
}

// New returns a Server. When cfg names a separate metrics listener the API
// router leaves /metrics unmounted.
func New(cfg config.AppConfig, svc *recordings.Service, hm *health.Manager) (*Server, error) {
	stack, err := StackFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Server{
		svc:          svc,
		health:       hm,
		stack:        stack,
		serveMetrics: cfg.Server.MetricsListen == "",
	}, nil
}

// Handler builds the routed, validated HTTP handler.
func (s *Server) Handler(ctx context.Context) (http.Handler, error) {
	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	validate, err := validateRequests(doc)
	if err != nil {
		return nil, err
	}

	r := middleware.NewRouter(s.stack)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	if s.serveMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)

		r.Post("/fetch-metadata", s.handleSearch)
		r.Post("/recording", s.handleRecording)
		r.Post("/recording-metadata", s.handleRecordingMetadata)
		r.Post("/download-recordings", s.handleDownload)

		r.Route("/vpi", func(r chi.Router) {
			r.Get("/metadata", s.handleMetadataRange)
			r.Get("/filter", s.handleFilter)
			r.Get("/recording", s.handleVpiRecording)
			r.Get("/check-connection", s.handleCheckConnection)
		})

		r.Get("/talkdesk/metadata", s.handleTagSearch)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusNotFound, "system/not_found", "Not Found", "NOT_FOUND", "no such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusMethodNotAllowed, "system/method_not_allowed", "Method Not Allowed", "METHOD_NOT_ALLOWED", "", nil)
	})
	return r, nil
}

// MetricsHandler serves Prometheus metrics for a dedicated listener.
func MetricsHandler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	return r
}
