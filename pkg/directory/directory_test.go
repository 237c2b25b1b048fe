package directory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkavo-labs/accord/pkg/directory"
)

func TestDirectory_BindAndLookup(t *testing.T) {
	dir := directory.New()
	addr := directory.NewAddress()

	_, ok := dir.Lookup(addr)
	assert.False(t, ok)

	dir.Bind(addr, "component-a")
	got, ok := dir.Lookup(addr)
	require.True(t, ok)
	assert.Equal(t, "component-a", got)
}

func TestDirectory_RebindReplaces(t *testing.T) {
	dir := directory.New()
	addr := directory.NewAddress()

	dir.Bind(addr, "component-a")
	dir.Bind(addr, "component-b")

	got, _ := dir.Lookup(addr)
	assert.Equal(t, "component-b", got)
}

func TestNewAddress_Unique(t *testing.T) {
	assert.NotEqual(t, directory.NewAddress(), directory.NewAddress())
	assert.NotEqual(t, directory.None, directory.NewAddress())
}
