package api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTerms(t *testing.T) {
	assert.Nil(t, splitTerms(nil))
	assert.Equal(t, []string{"100", "200", "300"}, splitTerms([]string{"100,200", " 300 ", ""}))
}

func TestBindQuery(t *testing.T) {
	q := url.Values{"pageSize": {"25"}, "Name": {"a", "b"}}

	var size *int
	var missing *int
	var names []string
	require.NoError(t, bindQuery(q,
		queryParam{name: "pageSize", dest: &size},
		queryParam{name: "pageNumber", dest: &missing},
		queryParam{name: "Name", dest: &names},
	))
	assert.Equal(t, 25, intOr(size, 10))
	assert.Equal(t, 1, intOr(missing, 1))
	assert.Equal(t, []string{"a", "b"}, names)

	var required string
	err := bindQuery(q, queryParam{name: "sessionId", required: true, dest: &required})
	assert.ErrorIs(t, err, errInvalidParameter)
}
