// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		requestID string
		want      string
	}{
		{name: "nil context", ctx: nil, requestID: "test-id-123", want: "test-id-123"},
		{name: "background context", ctx: context.Background(), requestID: "req-456", want: "req-456"},
		{name: "empty request ID", ctx: context.Background(), requestID: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.requestID)
			got := RequestIDFromContext(ctx)
			if got != tt.want {
				t.Errorf("RequestIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromContextNil(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if got := RequestIDFromContext(nil); got != "" {
		t.Errorf("RequestIDFromContext(nil) = %q", got)
	}
	//nolint:staticcheck
	if got := SessionIDFromContext(nil); got != "" {
		t.Errorf("SessionIDFromContext(nil) = %q", got)
	}
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "rid-1")
	ctx = ContextWithSessionID(ctx, "sid-9")

	l := WithContext(ctx, base)
	l.Info().Msg("x")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[FieldRequestID] != "rid-1" {
		t.Errorf("request_id = %v", entry[FieldRequestID])
	}
	if entry[FieldSessionID] != "sid-9" {
		t.Errorf("session_id = %v", entry[FieldSessionID])
	}
}

func TestWithContextWithoutFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	l := WithContext(context.Background(), base)
	l.Info().Msg("x")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := entry[FieldRequestID]; ok {
		t.Errorf("unexpected request_id field")
	}
}
