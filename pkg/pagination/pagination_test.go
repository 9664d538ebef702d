package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromQuery(t *testing.T) {
	p := FromQuery(url.Values{"page": {"3"}, "perPage": {"10"}})
	assert.Equal(t, Params{Page: 3, PerPage: 10}, p)
	assert.Equal(t, 20, p.Offset())

	p = FromQuery(url.Values{"page": {"-1"}, "perPage": {"5000"}})
	assert.Equal(t, Params{Page: 1, PerPage: MaxPerPage}, p)

	p = FromQuery(url.Values{})
	assert.Equal(t, Params{Page: 1, PerPage: DefaultPerPage}, p)
}

func TestNewResult(t *testing.T) {
	r := NewResult[string](nil, Params{Page: 1, PerPage: 20}, 41)
	assert.Equal(t, 3, r.TotalPages)
	assert.NotNil(t, r.Items)
	assert.Empty(t, r.Items)
}
