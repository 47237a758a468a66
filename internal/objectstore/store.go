// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package objectstore abstracts the flat key/value blob store holding recording
// metadata and audio.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrUnsupported is returned by backends lacking an optional capability.
	ErrUnsupported = errors.New("operation not supported by object store backend")
	// ErrInvalidKey is returned for keys that escape the store namespace.
	ErrInvalidKey = errors.New("invalid object key")
)

// Store is the read side every backend implements.
type Store interface {
	// List returns every key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Get returns the full content of key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Open streams the content of key. The caller closes the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Exists reports whether the store (container, directory, database) is reachable.
	Exists(ctx context.Context) (bool, error)
}

// Writer is implemented by backends that accept uploads (seeding, mirrors).
type Writer interface {
	Put(ctx context.Context, key string, r io.Reader) error
}

// TagQuery filters blobs by index tags.
type TagQuery struct {
	StartTime           time.Time
	EndTime             time.Time
	InteractionID       string
	CustomerPhoneNumber string
	TalkdeskPhoneNumber string
	CallType            string
	ContinuationToken   string
	PageSize            int
}

// TagTimeLayout is the layout of the Start_Time index tag.
const TagTimeLayout = "2006-01-02 15:04:05"

// Expression renders q as a blob index tag filter. Values are quoted; a value
// containing a single quote cannot be expressed and is rejected.
func (q TagQuery) Expression() (string, error) {
	if q.StartTime.IsZero() || q.EndTime.IsZero() {
		return "", fmt.Errorf("%w: tag query requires a time range", ErrInvalidKey)
	}
	clauses := []string{
		fmt.Sprintf(`"Start_Time" >= '%s'`, q.StartTime.Format(TagTimeLayout)),
		fmt.Sprintf(`"Start_Time" <= '%s'`, q.EndTime.Format(TagTimeLayout)),
	}
	optional := []struct{ tag, value string }{
		{"Interaction_ID", q.InteractionID},
		{"Customer_Phone_Number", q.CustomerPhoneNumber},
		{"Talkdesk_Phone_Number", q.TalkdeskPhoneNumber},
		{"Call_Type", q.CallType},
	}
	for _, o := range optional {
		v := strings.TrimSpace(o.value)
		if v == "" {
			continue
		}
		if strings.ContainsAny(v, "'\"\n") {
			return "", fmt.Errorf("%w: tag %s contains a quote or newline", ErrInvalidKey, o.tag)
		}
		clauses = append(clauses, fmt.Sprintf(`"%s" = '%s'`, o.tag, v))
	}
	return strings.Join(clauses, " AND "), nil
}

// TaggedObject is one tag-search match with its properties.
type TaggedObject struct {
	Name          string            `json:"blobName"`
	Metadata      map[string]string `json:"metadata"`
	LastModified  time.Time         `json:"lastModified"`
	ContentLength int64             `json:"contentLength"`
}

// TagPage is one page of tag-search results.
type TagPage struct {
	Objects           []TaggedObject `json:"data"`
	ContinuationToken string         `json:"continuationToken,omitempty"`
	TotalCount        int            `json:"totalCount"`
}

// TagSearcher is implemented by backends with blob index tags.
type TagSearcher interface {
	FindByTags(ctx context.Context, q TagQuery) (TagPage, error)
}

// FindByTags dispatches to s when it supports tag search.
func FindByTags(ctx context.Context, s Store, q TagQuery) (TagPage, error) {
	ts, ok := s.(TagSearcher)
	if !ok {
		return TagPage{}, ErrUnsupported
	}
	return ts.FindByTags(ctx, q)
}

// Put uploads through s when it accepts writes.
func Put(ctx context.Context, s Store, key string, r io.Reader) error {
	w, ok := s.(Writer)
	if !ok {
		return ErrUnsupported
	}
	return w.Put(ctx, key, r)
}
