// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metadata

import (
	"sort"
	"sync"
)

// Known operating companies.
const (
	OpcoCMP   = "CMP"
	OpcoRGE   = "RGE"
	OpcoNYSEG = "NYSEG"
)

// Source describes how one operating company stores its metadata.
type Source struct {
	Extractor Extractor
	// MetadataSubpath places metadata objects under {day}/Metadata/.
	MetadataSubpath bool
}

// Registry maps source identifiers to their extraction strategy.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// DefaultRegistry wires the known operating companies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(OpcoCMP, Source{Extractor: MediaCollection{}, MetadataSubpath: true})
	r.Register(OpcoRGE, Source{Extractor: Document{}})
	r.Register(OpcoNYSEG, Source{Extractor: Document{}})
	return r
}

// Register adds or replaces the source for id.
func (r *Registry) Register(id string, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[id] = src
}

// Lookup returns the source registered for id.
func (r *Registry) Lookup(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[id]
	return src, ok
}

// Known reports whether id is a registered source.
func (r *Registry) Known(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sources))
	for id := range r.sources {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
