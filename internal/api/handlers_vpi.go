// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"

	"github.com/ManuGH/callvault/internal/recordings"
	"github.com/ManuGH/callvault/internal/session"
)

const (
	defaultRangePageSize  = 50
	defaultFilterPageSize = 10
)

// handleMetadataRange implements GET /vpi/metadata.
func (s *Server) handleMetadataRange(w http.ResponseWriter, r *http.Request) {
	var (
		from, to, opco       string
		pageNumber, pageSize *int
		sessionID            *string
	)
	err := bindQuery(r.URL.Query(),
		queryParam{name: "from_date", required: true, dest: &from},
		queryParam{name: "to_date", required: true, dest: &to},
		queryParam{name: "opco", required: true, dest: &opco},
		queryParam{name: "page_number", dest: &pageNumber},
		queryParam{name: "page_size", dest: &pageSize},
		queryParam{name: "session_id", dest: &sessionID},
	)
	if err != nil {
		writeBadParameter(w, r, err)
		return
	}

	page, err := s.svc.MetadataRange(r.Context(), recordings.RangeQuery{
		Opco:       opco,
		From:       from,
		To:         to,
		PageNumber: intOr(pageNumber, 1),
		PageSize:   intOr(pageSize, defaultRangePageSize),
		SessionID:  stringOr(sessionID),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleFilter implements GET /vpi/filter.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var (
		sessionID                                     string
		extensionNum, objectID, channelNum, ani, name []string
		pageNumber, pageSize                          *int
	)
	err := bindQuery(r.URL.Query(),
		queryParam{name: "sessionId", required: true, dest: &sessionID},
		queryParam{name: session.SigExtensionNum, dest: &extensionNum},
		queryParam{name: session.SigObjectID, dest: &objectID},
		queryParam{name: session.SigChannelNum, dest: &channelNum},
		queryParam{name: session.SigAniAliDigits, dest: &ani},
		queryParam{name: session.SigName, dest: &name},
		queryParam{name: "pageNumber", dest: &pageNumber},
		queryParam{name: "pageSize", dest: &pageSize},
	)
	if err != nil {
		writeBadParameter(w, r, err)
		return
	}

	page, err := s.svc.FilterMetadata(r.Context(), recordings.FilterQuery{
		SessionID: sessionID,
		Filter: session.Filter{
			ExtensionNum: splitTerms(extensionNum),
			ObjectID:     splitTerms(objectID),
			ChannelNum:   splitTerms(channelNum),
			AniAliDigits: splitTerms(ani),
			Name:         splitTerms(name),
		},
		PageNumber: intOr(pageNumber, 1),
		PageSize:   intOr(pageSize, defaultFilterPageSize),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleVpiRecording implements GET /vpi/recording.
func (s *Server) handleVpiRecording(w http.ResponseWriter, r *http.Request) {
	var req recordings.Request
	err := bindQuery(r.URL.Query(),
		queryParam{name: "filename", required: true, dest: &req.Filename},
		queryParam{name: "date", required: true, dest: &req.Date},
		queryParam{name: "opco", required: true, dest: &req.Opco},
	)
	if err != nil {
		writeBadParameter(w, r, err)
		return
	}
	s.serveAudio(w, r, req)
}

type connectionStatus struct {
	Accessible bool   `json:"accessible"`
	Message    string `json:"message"`
}

// handleCheckConnection implements GET /vpi/check-connection.
func (s *Server) handleCheckConnection(w http.ResponseWriter, r *http.Request) {
	ok, err := s.svc.CheckConnection(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	msg := "Object store container is accessible"
	if !ok {
		msg = "Object store container is NOT accessible"
	}
	writeJSON(w, http.StatusOK, connectionStatus{Accessible: ok, Message: msg})
}
