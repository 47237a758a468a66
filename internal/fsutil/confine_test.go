// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfineRelPath(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "CMP", "2016"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "escape")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{"existing dir", "CMP/2016", false},
		{"missing nested file", "CMP/2016/1/1/a.wav", false},
		{"dotdot", "../x", true},
		{"dotdot inside", "CMP/../../x", true},
		{"absolute", "/etc/passwd", true},
		{"backslash", `CMP\2016`, true},
		{"symlink escape", "escape/secret.xml", true},
		{"dots in name", "CMP/a..b.xml", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfineRelPath(root, tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if !errors.Is(err, ErrEscapesRoot) {
					t.Errorf("expected ErrEscapesRoot, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			realRoot, _ := filepath.EvalSymlinks(root)
			if rel, _ := filepath.Rel(realRoot, got); rel != filepath.FromSlash(tt.target) {
				t.Errorf("resolved %q, rel %q", got, rel)
			}
		})
	}
}
