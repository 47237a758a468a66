// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/oapi-codegen/runtime"
)

// queryParam binds one form-style query parameter into dest.
type queryParam struct {
	name     string
	required bool
	dest     any
}

func bindQuery(q url.Values, params ...queryParam) error {
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, p.required, p.name, q, p.dest); err != nil {
			return fmt.Errorf("%w: %s: %v", errInvalidParameter, p.name, err)
		}
	}
	return nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// splitTerms accepts both repeated parameters and comma-separated values.
func splitTerms(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: request body: %v", errInvalidParameter, err)
	}
	return nil
}
