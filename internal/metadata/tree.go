// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metadata

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// maxDocumentSize caps a single metadata object.
const maxDocumentSize = 16 << 20

// textKey holds character data of elements that also carry attributes or children.
const textKey = "#text"

// element is a minimal DOM node. Attributes and children keep document order.
type element struct {
	name     string
	attrs    []xml.Attr
	children []*element
	text     strings.Builder
}

func (e *element) attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// isLeaf reports whether the element has neither attributes nor child elements.
func (e *element) isLeaf() bool {
	return len(e.attrs) == 0 && len(e.children) == 0
}

func (e *element) content() string {
	return strings.TrimSpace(e.text.String())
}

// named returns the children of e called name.
func (e *element) named(name string) []*element {
	var out []*element
	for _, c := range e.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// parseDocument decodes data into an element tree and returns the root.
func parseDocument(data []byte) (*element, error) {
	dec := xml.NewDecoder(io.LimitReader(bytes.NewReader(data), maxDocumentSize))
	dec.Strict = true
	dec.Entity = make(map[string]string)
	// Recorder exports declare windows-1252 / iso-8859-1 now and then.
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *element
		stack []*element
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name.Local, attrs: t.Copy().Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			} else if root != nil {
				return nil, errors.New("decode xml: multiple root elements")
			} else {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("decode xml: unbalanced end element")
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("decode xml: empty document")
	}
	if len(stack) != 0 {
		return nil, errors.New("decode xml: unexpected end of document")
	}
	return root, nil
}

// value converts an element into a generic value: leaf elements become their
// text, everything else a map of attributes and children. Repeated child names
// collapse into a list in document order.
func (e *element) value() any {
	if e.isLeaf() {
		return e.content()
	}
	return e.fields()
}

func (e *element) fields() map[string]any {
	out := make(map[string]any, len(e.attrs)+len(e.children))
	for _, a := range e.attrs {
		out[a.Name.Local] = a.Value
	}
	for _, c := range e.children {
		v := c.value()
		switch prev := out[c.name].(type) {
		case nil:
			out[c.name] = v
		case []any:
			out[c.name] = append(prev, v)
		default:
			out[c.name] = []any{prev, v}
		}
	}
	if txt := e.content(); txt != "" && (len(e.attrs) > 0 || len(e.children) > 0) {
		out[textKey] = txt
	}
	return out
}

// stringForm renders a composite element compactly as JSON.
func (e *element) stringForm() string {
	b, err := json.Marshal(e.value())
	if err != nil {
		return e.content()
	}
	return string(b)
}
