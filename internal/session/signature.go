// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/callvault/internal/metadata"
)

// Signature keys, as echoed in filter requests.
const (
	SigExtensionNum = "extensionNum"
	SigObjectID     = "objectID"
	SigChannelNum   = "channelNum"
	SigAniAliDigits = "AniAliDigits"
	SigName         = "Name"
)

var signatureKeys = []string{SigExtensionNum, SigObjectID, SigChannelNum, SigAniAliDigits, SigName}

// Filter holds the term lists of a refinement request.
type Filter struct {
	ExtensionNum []string `json:"extensionNum"`
	ObjectID     []string `json:"objectID"`
	ChannelNum   []string `json:"channelNum"`
	AniAliDigits []string `json:"aniAliDigits"`
	Name         []string `json:"name"`
}

// Empty reports whether no term list has an entry.
func (f Filter) Empty() bool {
	return len(f.ExtensionNum) == 0 && len(f.ObjectID) == 0 && len(f.ChannelNum) == 0 &&
		len(f.AniAliDigits) == 0 && len(f.Name) == 0
}

// Signature identifies a filter: every key is present, absent lists are empty.
type Signature map[string][]string

// Signature returns the structural identity of f.
func (f Filter) Signature() Signature {
	return Signature{
		SigExtensionNum: nonNil(f.ExtensionNum),
		SigObjectID:     nonNil(f.ObjectID),
		SigChannelNum:   nonNil(f.ChannelNum),
		SigAniAliDigits: nonNil(f.AniAliDigits),
		SigName:         nonNil(f.Name),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Equal compares field by field, term order included.
func (s Signature) Equal(o Signature) bool {
	if len(s) != len(o) {
		return false
	}
	for _, k := range signatureKeys {
		a, b := s[k], o[k]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// nfc puts both sides of a substring comparison in composed form so that
// "é" typed either way matches.
func nfc(s string) string { return norm.NFC.String(s) }

// Matches applies f to r. Each non-empty list must match:
// extensionNum, objectID and channelNum exactly against any term;
// aniAliDigits by substring; name by substring against fullName or name.
func (f Filter) Matches(r metadata.Record) bool {
	if !exactAny(r.String(metadata.FieldExtensionNum), f.ExtensionNum) {
		return false
	}
	if !exactAny(r.String(metadata.FieldObjectID), f.ObjectID) {
		return false
	}
	if !exactAny(r.String(metadata.FieldChannelNum), f.ChannelNum) {
		return false
	}
	if !containsAny([]string{r.String(metadata.FieldAniAliDigits)}, f.AniAliDigits) {
		return false
	}
	return containsAny([]string{r.String(metadata.FieldFullName), r.String(metadata.FieldName)}, f.Name)
}

func exactAny(value string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	for _, t := range terms {
		if value == t {
			return true
		}
	}
	return false
}

func containsAny(values []string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	for _, v := range values {
		nv := nfc(v)
		for _, t := range terms {
			if strings.Contains(nv, nfc(t)) {
				return true
			}
		}
	}
	return false
}
