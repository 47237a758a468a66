// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package fsutil keeps file access confined to a root directory.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEscapesRoot is returned when a target resolves outside its root.
var ErrEscapesRoot = errors.New("path escapes root")

// ConfineRelPath joins root and the slash-separated relative target and
// ensures the result, after resolving symlinks, stays underneath root.
// Targets need not exist yet.
func ConfineRelPath(root, relTarget string) (string, error) {
	if strings.Contains(relTarget, "\\") {
		return "", fmt.Errorf("%w: backslash in %q", ErrEscapesRoot, relTarget)
	}
	cleanRel := filepath.Clean(filepath.FromSlash(relTarget))
	if filepath.IsAbs(cleanRel) || !filepath.IsLocal(cleanRel) {
		return "", fmt.Errorf("%w: %q", ErrEscapesRoot, relTarget)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		realRoot = absRoot
	}

	full := filepath.Join(realRoot, cleanRel)
	real, err := resolveExisting(full)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(realRoot, real)
	if err != nil {
		return "", fmt.Errorf("rel computation failed: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w via symlink: %s", ErrEscapesRoot, real)
	}
	return real, nil
}

// resolveExisting resolves symlinks in the longest existing ancestor of p and
// re-appends the missing tail.
func resolveExisting(p string) (string, error) {
	var tail []string
	cur := p
	for {
		if _, err := os.Lstat(cur); err == nil {
			resolved, err := filepath.EvalSymlinks(cur)
			if err != nil {
				return "", fmt.Errorf("failed to resolve path: %w", err)
			}
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		tail = append(tail, filepath.Base(cur))
		cur = parent
	}
}
