// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/recordings"
)

// handleSearch implements POST /fetch-metadata.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req recordings.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadParameter(w, r, err)
		return
	}
	resp, err := s.svc.Search(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRecordingMetadata implements POST /recording-metadata.
func (s *Server) handleRecordingMetadata(w http.ResponseWriter, r *http.Request) {
	var req recordings.Request
	if err := decodeJSON(r, &req); err != nil {
		writeBadParameter(w, r, err)
		return
	}
	rec, err := s.svc.RecordingMetadata(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleRecording implements POST /recording.
func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	var req recordings.Request
	if err := decodeJSON(r, &req); err != nil {
		writeBadParameter(w, r, err)
		return
	}
	s.serveAudio(w, r, req)
}

func (s *Server) serveAudio(w http.ResponseWriter, r *http.Request, req recordings.Request) {
	audio, err := s.svc.RecordingAudio(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", audio.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio.Data); err != nil {
		l := log.WithComponentFromContext(r.Context(), "api")
		l.Debug().Err(err).Msg("audio write interrupted")
	}
}

// handleDownload implements POST /download-recordings. Every item is
// resolved before the first byte is sent so lookup failures still get a
// problem response; a storage failure mid-stream aborts the connection.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var reqs []recordings.Request
	if err := decodeJSON(r, &reqs); err != nil {
		writeBadParameter(w, r, err)
		return
	}
	plan, err := s.svc.PrepareArchive(r.Context(), reqs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="recordings.zip"`)
	w.WriteHeader(http.StatusOK)
	if err := s.svc.WriteArchive(r.Context(), plan, w); err != nil {
		l := log.WithComponentFromContext(r.Context(), "api")
		l.Error().
			Err(err).
			Str(log.FieldEvent, "archive.aborted").
			Int("items", plan.Len()).
			Msg("archive stream failed after headers were sent")
		panic(http.ErrAbortHandler)
	}
}
