// SPDX-License-Identifier: MIT
package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		allowedSchemes []string
		wantErr        bool
	}{
		{"valid https", "https://acct.blob.core.windows.net", []string{"http", "https"}, false},
		{"empty url", "", []string{"http"}, true},
		{"no host", "http://", []string{"http"}, true},
		{"invalid scheme", "ftp://example.com", []string{"http", "https"}, true},
		{"no scheme", "example.com", []string{"http"}, true},
		{"any scheme", "redis://localhost:6379", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("url", tt.value, tt.allowedSchemes)
			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{":8080", false},
		{"127.0.0.1:9090", false},
		{"", true},
		{"localhost", true},
		{"localhost:", true},
		{":http", true},
		{":70000", true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			v := New()
			v.ListenAddr("server.listen", tt.addr)
			if got := !v.IsValid(); got != tt.wantErr {
				t.Errorf("ListenAddr(%q) err = %v, want %v", tt.addr, got, tt.wantErr)
			}
		})
	}
}

func TestValidator_Range(t *testing.T) {
	v := New()
	v.Range("page.size", 0, 1, 100)
	v.Range("page.size", 101, 1, 100)
	v.Range("page.size", 50, 1, 100)
	if got := len(v.Errors()); got != 2 {
		t.Fatalf("expected 2 errors, got %d", got)
	}
}

func TestValidator_Directory(t *testing.T) {
	tmp := t.TempDir()

	t.Run("creates missing", func(t *testing.T) {
		v := New()
		p := filepath.Join(tmp, "created")
		v.Directory("dir", p, false)
		if !v.IsValid() {
			t.Fatalf("unexpected error: %v", v.Err())
		}
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			t.Fatalf("directory not created: %v", err)
		}
	})

	t.Run("must exist", func(t *testing.T) {
		v := New()
		v.Directory("dir", filepath.Join(tmp, "nope"), true)
		if v.IsValid() {
			t.Fatal("expected error")
		}
	})

	t.Run("file not dir", func(t *testing.T) {
		f := filepath.Join(tmp, "file")
		if err := os.WriteFile(f, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		v := New()
		v.Directory("dir", f, true)
		if v.IsValid() {
			t.Fatal("expected error")
		}
	})

	t.Run("traversal", func(t *testing.T) {
		v := New()
		v.Directory("dir", "../etc", false)
		if v.IsValid() {
			t.Fatal("expected error")
		}
	})
}

func TestValidator_Timestamp(t *testing.T) {
	const layout = "2006-01-02 15:04:05"

	v := New()
	got := v.Timestamp("fromDate", "2024-03-05 10:00:00", layout)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	if want := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", got, want)
	}

	v = New()
	if got := v.Timestamp("fromDate", "2024-03-05", layout); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
	if v.IsValid() {
		t.Fatal("expected error for date-only value")
	}
}

func TestValidator_Filename(t *testing.T) {
	for _, name := range []string{"", " ", "a/b.wav", `a\b.wav`, "..wav"} {
		v := New()
		v.Filename("filename", name)
		if v.IsValid() {
			t.Errorf("Filename(%q) accepted", name)
		}
	}
	v := New()
	v.Filename("filename", "call_0001.wav")
	if !v.IsValid() {
		t.Errorf("unexpected error: %v", v.Err())
	}
}

func TestValidationError_Aggregates(t *testing.T) {
	v := New()
	v.NotEmpty("a", "")
	v.Positive("b", 0)
	v.OneOf("c", "x", []string{"y"})

	err := v.Err()
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(ve.Errors()))
	}
	if strings.Count(err.Error(), ";") != 2 {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestParseLogLevel(t *testing.T) {
	if _, err := ParseLogLevel("trace"); err == nil {
		t.Error("expected error for trace")
	}
	if lvl, err := ParseLogLevel("warn"); err != nil || lvl != LogLevelWarn {
		t.Errorf("ParseLogLevel(warn) = %v, %v", lvl, err)
	}
}
