// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	"github.com/ManuGH/callvault/internal/control/http/problem"
)

//go:embed openapi.yaml
var openapiSpec []byte

// LoadOpenAPI parses and validates the embedded API document.
func LoadOpenAPI(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// validateRequests rejects requests that do not satisfy the API document.
// Paths the document does not describe (probes, metrics) pass through.
func validateRequests(doc *openapi3.T) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("openapi router init: %w", err)
	}
	opts := &openapi3filter.Options{
		MultiError:         false,
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				if errors.Is(err, routers.ErrPathNotFound) || errors.Is(err, routers.ErrMethodNotAllowed) {
					next.ServeHTTP(w, r)
					return
				}
				problem.Write(w, r, http.StatusBadRequest, "request/invalid", "Bad Request", "INVALID_REQUEST", err.Error(), nil)
				return
			}

			if r.Method == http.MethodPost && r.Header.Get("Content-Type") == "" {
				r.Header.Set("Content-Type", "application/json")
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    opts,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				problem.Write(w, r, http.StatusBadRequest, "request/invalid", "Bad Request", "INVALID_REQUEST", validationDetail(err), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func validationDetail(err error) string {
	var reqErr *openapi3filter.RequestError
	if !errors.As(err, &reqErr) {
		return err.Error()
	}
	reason := reqErr.Reason
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) && schemaErr.Reason != "" {
		reason = schemaErr.Reason
	}
	if reason == "" && reqErr.Err != nil {
		reason = reqErr.Err.Error()
	}
	if reqErr.Parameter != nil {
		return fmt.Sprintf("parameter %q: %s", reqErr.Parameter.Name, reason)
	}
	if reqErr.RequestBody != nil {
		return "request body: " + reason
	}
	return reason
}
