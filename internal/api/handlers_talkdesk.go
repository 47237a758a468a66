// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"

	"github.com/ManuGH/callvault/internal/recordings"
)

// handleTagSearch implements GET /talkdesk/metadata.
func (s *Server) handleTagSearch(w http.ResponseWriter, r *http.Request) {
	var req recordings.TagRequest
	var pageSize *int
	var token, interaction, customer, talkdesk, callType *string
	err := bindQuery(r.URL.Query(),
		queryParam{name: "start_date", required: true, dest: &req.StartDate},
		queryParam{name: "end_date", required: true, dest: &req.EndDate},
		queryParam{name: "continuation_token", dest: &token},
		queryParam{name: "page_size", dest: &pageSize},
		queryParam{name: "interaction_id", dest: &interaction},
		queryParam{name: "customer_phone_number", dest: &customer},
		queryParam{name: "talkdesk_phone_number", dest: &talkdesk},
		queryParam{name: "call_type", dest: &callType},
	)
	if err != nil {
		writeBadParameter(w, r, err)
		return
	}
	req.PageSize = intOr(pageSize, recordings.DefaultTagPageSize)
	req.ContinuationToken = stringOr(token)
	req.InteractionID = stringOr(interaction)
	req.CustomerPhoneNumber = stringOr(customer)
	req.TalkdeskPhoneNumber = stringOr(talkdesk)
	req.CallType = stringOr(callType)

	page, err := s.svc.TagSearch(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
