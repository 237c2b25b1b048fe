package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkavo-labs/accord/pkg/events"
	"github.com/arkavo-labs/accord/pkg/host"
)

func TestLogicalClock(t *testing.T) {
	clock := host.NewLogicalClock(10)
	assert.Equal(t, uint64(10), clock.Now())
	assert.Equal(t, uint64(11), clock.Tick())
	assert.Equal(t, uint64(11), clock.Now())
}

func TestEnv_EmitAssignsMetadata(t *testing.T) {
	log := events.NewLog()
	clock := host.NewLogicalClock(5)
	env := host.NewEnv(clock, log)

	env.Emit(events.PolicyCreated{PolicyID: 0, ResourceID: "vault"})
	clock.Tick()
	env.Emit(events.PolicyDeleted{PolicyID: 0})

	entries := log.Entries()
	require.Len(t, entries, 2)

	first, second := entries[0].Envelope, entries[1].Envelope
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Equal(t, uint64(5), first.Time)
	assert.Equal(t, uint64(6), second.Time)
	assert.Equal(t, "PolicyCreated", first.Name)
}

func TestEnv_NilDependenciesAreSafe(t *testing.T) {
	env := host.NewEnv(nil, nil)
	assert.Equal(t, uint64(0), env.Now())
	assert.NotPanics(t, func() {
		env.Emit(events.PolicyCreated{})
	})
}
