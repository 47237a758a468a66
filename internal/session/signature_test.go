// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/callvault/internal/metadata"
)

func TestSignatureAlwaysHasAllKeys(t *testing.T) {
	sig := Filter{Name: []string{"bob"}}.Signature()
	assert.Len(t, sig, 5)
	assert.Equal(t, []string{}, sig[SigExtensionNum])
	assert.Equal(t, []string{"bob"}, sig[SigName])
}

func TestSignatureEqual(t *testing.T) {
	a := Filter{ExtensionNum: []string{"1", "2"}}.Signature()
	assert.True(t, a.Equal(Filter{ExtensionNum: []string{"1", "2"}}.Signature()))
	assert.False(t, a.Equal(Filter{ExtensionNum: []string{"2", "1"}}.Signature()), "order matters")
	assert.False(t, a.Equal(Filter{ExtensionNum: []string{"1", "2"}, Name: []string{"x"}}.Signature()))
	assert.True(t, Filter{}.Signature().Equal(Filter{ObjectID: []string{}}.Signature()), "nil and empty lists are the same")
}

func TestFilterMatches(t *testing.T) {
	rec := metadata.Record{
		"extensionNum": "100",
		"objectID":     "obj-9",
		"channelNum":   "4",
		"aniAliDigits": "5551234567",
		"fullName":     "Alice Smith",
	}
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"extension exact", Filter{ExtensionNum: []string{"200", "100"}}, true},
		{"extension is not substring", Filter{ExtensionNum: []string{"10"}}, false},
		{"object exact", Filter{ObjectID: []string{"obj-9"}}, true},
		{"channel miss", Filter{ChannelNum: []string{"5"}}, false},
		{"ani substring", Filter{AniAliDigits: []string{"1234"}}, true},
		{"ani miss", Filter{AniAliDigits: []string{"999"}}, false},
		{"name via fullName", Filter{Name: []string{"Smith"}}, true},
		{"name is case sensitive", Filter{Name: []string{"smith"}}, false},
		{"all lists must match", Filter{ExtensionNum: []string{"100"}, ChannelNum: []string{"5"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(rec))
		})
	}
}

func TestFilterMatchesNameField(t *testing.T) {
	rec := metadata.Record{"name": "Caf\u00e9 Desk"}
	// decomposed e + combining acute still matches the composed form
	assert.True(t, Filter{Name: []string{"Cafe\u0301"}}.Matches(rec))
	assert.False(t, Filter{AniAliDigits: []string{"1"}}.Matches(rec))
}
