package adminaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionType(t *testing.T) {
	a, err := ParseActionType("REOPEN_DOCUMENT")
	require.NoError(t, err)
	assert.Equal(t, ActionReopenDocument, a)

	_, err = ParseActionType("MARK_MILESTONE_PAID")
	assert.Error(t, err)
}
