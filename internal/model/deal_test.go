package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealFloat_Numeric(t *testing.T) {
	d := Deal{"deal_size": 1500.5}
	v, err := d.Float("deal_size")
	require.NoError(t, err)
	assert.Equal(t, 1500.5, v)
}

func TestDealFloat_NumericString(t *testing.T) {
	d := Deal{"discount_percent": " 12.5 "}
	v, err := d.Float("discount_percent")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)
}

func TestDealFloat_Int(t *testing.T) {
	d := Deal{"deal_size": 200}
	v, err := d.Float("deal_size")
	require.NoError(t, err)
	assert.Equal(t, 200.0, v)
}

func TestDealFloat_MissingIsZero(t *testing.T) {
	v, err := Deal{}.Float("deal_size")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestDealFloat_EmptyStringIsZero(t *testing.T) {
	v, err := Deal{"deal_size": ""}.Float("deal_size")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestDealFloat_NonNumericErrors(t *testing.T) {
	_, err := Deal{"deal_size": "ten grand"}.Float("deal_size")
	assert.Error(t, err)
}

func TestDealString(t *testing.T) {
	d := Deal{"deal_id": "DEAL_0001", "deal_size": 100.0, "count": 3}
	assert.Equal(t, "DEAL_0001", d.String("deal_id"))
	assert.Equal(t, "100", d.String("deal_size"))
	assert.Equal(t, "3", d.String("count"))
	assert.Equal(t, "", d.String("missing"))
}

func TestDealID_Fallback(t *testing.T) {
	assert.Equal(t, "Unknown", Deal{}.DealID())
	assert.Equal(t, "DEAL_0007", Deal{"deal_id": "DEAL_0007"}.DealID())
}
