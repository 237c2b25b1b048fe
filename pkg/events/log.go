package events

import (
	"errors"
	"fmt"
	"sync"

	"github.com/arkavo-labs/accord/pkg/canonical"
)

// ErrEntryNotFound is returned by Get for an unknown sequence number.
var ErrEntryNotFound = errors.New("audit entry not found")

// Entry is an immutable, hash-chained audit record.
type Entry struct {
	Envelope  *Envelope `json:"envelope"`
	PrevHash  string    `json:"prev_hash"`
	EntryHash string    `json:"entry_hash"`
}

// Log is an append-only, hash-chained audit log. It implements Sink and is
// the authoritative in-process record from which an external indexer can
// reconstruct component history.
type Log struct {
	mu      sync.RWMutex
	entries []*Entry
	head    string
}

// NewLog creates an empty audit log.
func NewLog() *Log {
	return &Log{head: "genesis"}
}

// Emit appends the envelope, chaining it to the previous entry hash.
func (l *Log) Emit(env *Envelope) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	hash, err := canonical.Hash(struct {
		Envelope *Envelope `json:"envelope"`
		PrevHash string    `json:"prev_hash"`
	}{env, l.head})
	if err != nil {
		return fmt.Errorf("events: hash entry: %w", err)
	}

	l.entries = append(l.entries, &Entry{
		Envelope:  env,
		PrevHash:  l.head,
		EntryHash: hash,
	})
	l.head = hash
	return nil
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Head returns the current chain head hash.
func (l *Log) Head() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.head
}

// Get retrieves the entry whose envelope carries the given sequence number.
func (l *Log) Get(sequence uint64) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.Envelope.Sequence == sequence {
			return e, nil
		}
	}
	return nil, ErrEntryNotFound
}

// Entries returns a copy of all entries in append order.
func (l *Log) Entries() []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ByName returns all entries whose event carries the given name.
func (l *Log) ByName(name string) []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Entry
	for _, e := range l.entries {
		if e.Envelope.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Verify walks the chain and reports the first break, if any.
func (l *Log) Verify() (bool, string) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	prev := "genesis"
	for i, e := range l.entries {
		if e.PrevHash != prev {
			return false, fmt.Sprintf("chain broken at entry %d: expected prev %s, got %s", i+1, prev, e.PrevHash)
		}
		hash, err := canonical.Hash(struct {
			Envelope *Envelope `json:"envelope"`
			PrevHash string    `json:"prev_hash"`
		}{e.Envelope, e.PrevHash})
		if err != nil {
			return false, fmt.Sprintf("entry %d not hashable: %v", i+1, err)
		}
		if hash != e.EntryHash {
			return false, fmt.Sprintf("hash mismatch at entry %d", i+1)
		}
		prev = e.EntryHash
	}
	return true, "chain verified"
}
