package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseText_CommaDelimited(t *testing.T) {
	rows, err := parseText("customer,amount\nAcme,5000\nGlobex,8000\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Acme", rows[0]["customer"])
	assert.Equal(t, "8000", rows[1]["amount"])
}

func TestParseText_TabDelimited(t *testing.T) {
	rows, err := parseText("customer\tamount\nAcme\t5000\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Acme", rows[0]["customer"])
	assert.Equal(t, "5000", rows[0]["amount"])
}

func TestParseText_UnstructuredPlaceholder(t *testing.T) {
	rows, err := parseText("Meeting notes: Acme wants a renewal discount next quarter.")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "TXT_001", rows[0]["deal_id"])
	assert.Equal(t, "From Text File", rows[0]["customer_name"])
	assert.Equal(t, 10000, rows[0]["deal_size"])
	assert.Equal(t, "Imported from Text", rows[0]["deal_status"])
}

func TestParseText_SingleDelimitedLineStillPlaceholder(t *testing.T) {
	rows, err := parseText("just,one,line")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "TXT_001", rows[0]["deal_id"])
}
