// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/callvault/internal/control/http/problem"
	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/recordings"
)

var errInvalidParameter = errors.New("invalid parameter")

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type problemSpec struct {
	status int
	kind   string
	title  string
	code   string
}

var problemByClass = map[recordings.ErrorClass]problemSpec{
	recordings.ClassInvalidArgument: {http.StatusBadRequest, "recordings/invalid", "Bad Request", "INVALID_REQUEST"},
	recordings.ClassNotFound:        {http.StatusNotFound, "recordings/not_found", "Not Found", "NOT_FOUND"},
	recordings.ClassUnsupported:     {http.StatusNotImplemented, "recordings/unsupported", "Not Implemented", "UNSUPPORTED"},
	recordings.ClassUnavailable:     {http.StatusServiceUnavailable, "recordings/unavailable", "Service Unavailable", "UNAVAILABLE"},
	recordings.ClassUpstream:        {http.StatusBadGateway, "recordings/storage", "Bad Gateway", "STORAGE_ERROR"},
	recordings.ClassInternal:        {http.StatusInternalServerError, "recordings/internal", "Internal Server Error", "INTERNAL"},
}

// writeServiceError renders err as a problem response keyed by its class.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	class := recordings.Classify(err)
	if class == recordings.ClassCanceled {
		logger.Debug().Err(err).Str("path", r.URL.Path).Msg("client went away")
		return
	}

	p, ok := problemByClass[class]
	if !ok {
		p = problemByClass[recordings.ClassInternal]
	}
	if p.status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("class", string(class)).Str("path", r.URL.Path).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("class", string(class)).Msg("request rejected")
	}
	problem.Write(w, r, p.status, p.kind, p.title, p.code, recordings.Message(err), nil)
}

func writeBadParameter(w http.ResponseWriter, r *http.Request, err error) {
	problem.Write(w, r, http.StatusBadRequest, "request/invalid", "Bad Request", "INVALID_REQUEST", err.Error(), nil)
}
