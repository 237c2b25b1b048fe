package events_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkavo-labs/accord/pkg/events"
)

func envelope(seq uint64, name string, ev events.Event) *events.Envelope {
	return &events.Envelope{ID: "test-id", Sequence: seq, Time: seq, Name: name, Event: ev}
}

func TestLog_ChainsAndVerifies(t *testing.T) {
	log := events.NewLog()
	require.NoError(t, log.Emit(envelope(1, "EntitlementGranted", events.EntitlementGranted{Account: "alice", Level: 3})))
	require.NoError(t, log.Emit(envelope(2, "EntitlementRevoked", events.EntitlementRevoked{Account: "alice"})))

	assert.Equal(t, 2, log.Len())

	entries := log.Entries()
	assert.Equal(t, "genesis", entries[0].PrevHash)
	assert.Equal(t, entries[0].EntryHash, entries[1].PrevHash)
	assert.Equal(t, entries[1].EntryHash, log.Head())

	ok, detail := log.Verify()
	assert.True(t, ok, detail)
}

func TestLog_VerifyDetectsTampering(t *testing.T) {
	log := events.NewLog()
	require.NoError(t, log.Emit(envelope(1, "PolicyCreated", events.PolicyCreated{PolicyID: 0, ResourceID: "vault"})))
	require.NoError(t, log.Emit(envelope(2, "PolicyDeleted", events.PolicyDeleted{PolicyID: 0})))

	// Entries shares envelope pointers; rewriting one breaks the chain.
	log.Entries()[0].Envelope.Name = "PolicyUpdated"

	ok, detail := log.Verify()
	assert.False(t, ok)
	assert.Contains(t, detail, "entry 1")
}

func TestLog_GetBySequence(t *testing.T) {
	log := events.NewLog()
	require.NoError(t, log.Emit(envelope(7, "AccessDenied", events.AccessDenied{Account: "alice", Reason: "missing attribute"})))

	entry, err := log.Get(7)
	require.NoError(t, err)
	assert.Equal(t, "AccessDenied", entry.Envelope.Name)

	_, err = log.Get(8)
	assert.ErrorIs(t, err, events.ErrEntryNotFound)
}

func TestLog_ByName(t *testing.T) {
	log := events.NewLog()
	require.NoError(t, log.Emit(envelope(1, "AccessGranted", events.AccessGranted{Account: "alice"})))
	require.NoError(t, log.Emit(envelope(2, "AccessDenied", events.AccessDenied{Account: "bob"})))
	require.NoError(t, log.Emit(envelope(3, "AccessGranted", events.AccessGranted{Account: "carol"})))

	assert.Len(t, log.ByName("AccessGranted"), 2)
	assert.Len(t, log.ByName("AccessDenied"), 1)
	assert.Empty(t, log.ByName("PaymentRecorded"))
}

func TestWriterSink_EmitsPrefixedJSONLines(t *testing.T) {
	var buf bytes.Buffer
	sink := events.NewWriterSink(&buf)

	require.NoError(t, sink.Emit(envelope(1, "PaymentRecorded", events.PaymentRecorded{PaymentID: 0, Account: "alice"})))

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "AUDIT: "))
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, `"name":"PaymentRecorded"`)
}

type failingSink struct{ err error }

func (f failingSink) Emit(*events.Envelope) error { return f.err }

type countingSink struct{ n int }

func (c *countingSink) Emit(*events.Envelope) error {
	c.n++
	return nil
}

func TestMultiSink_AttemptsAllAndReportsFirstError(t *testing.T) {
	boom := errors.New("boom")
	counter := &countingSink{}
	sink := events.MultiSink{failingSink{boom}, counter}

	err := sink.Emit(envelope(1, "PolicyCreated", events.PolicyCreated{}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, counter.n, "later sinks still run after a failure")
}
