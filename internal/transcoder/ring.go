// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package transcoder

import "sync"

// RingBuffer keeps the last N lines written to it.
type RingBuffer struct {
	lines []string
	pos   int
	full  bool
	mu    sync.Mutex
}

func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 1
	}
	return &RingBuffer{lines: make([]string, size)}
}

func (r *RingBuffer) Add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.pos] = line
	r.pos = (r.pos + 1) % len(r.lines)
	if r.pos == 0 {
		r.full = true
	}
}

// Lines returns the retained lines, oldest first.
func (r *RingBuffer) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]string(nil), r.lines[:r.pos]...)
	}
	res := make([]string, len(r.lines))
	copy(res, r.lines[r.pos:])
	copy(res[len(r.lines)-r.pos:], r.lines[:r.pos])
	return res
}
