package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arkavo-labs/accord/pkg/entitlement"
)

func TestLevel_Ordering(t *testing.T) {
	assert.True(t, entitlement.None < entitlement.Basic)
	assert.True(t, entitlement.Basic < entitlement.Premium)
	assert.True(t, entitlement.Premium < entitlement.VIP)
}

func TestLevel_Satisfies(t *testing.T) {
	tests := []struct {
		held     entitlement.Level
		required entitlement.Level
		expected bool
	}{
		{entitlement.VIP, entitlement.Basic, true},
		{entitlement.VIP, entitlement.VIP, true},
		{entitlement.Premium, entitlement.VIP, false},
		{entitlement.None, entitlement.None, true},
		{entitlement.None, entitlement.Basic, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.held.Satisfies(tt.required),
			"%s satisfies %s", tt.held, tt.required)
	}
}

func TestLevel_Valid(t *testing.T) {
	assert.True(t, entitlement.None.Valid())
	assert.True(t, entitlement.VIP.Valid())
	assert.False(t, entitlement.Level(4).Valid())
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"none", "basic", "premium", "vip"} {
		level, err := entitlement.ParseLevel(name)
		assert.NoError(t, err)
		assert.Equal(t, name, level.String())
	}

	level, err := entitlement.ParseLevel("2")
	assert.NoError(t, err)
	assert.Equal(t, entitlement.Premium, level)

	_, err = entitlement.ParseLevel("platinum")
	assert.Error(t, err)
}
