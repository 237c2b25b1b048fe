// Package attribute implements the attribute store: namespaced key/value
// assertions about principals with delegated-write authorization.
//
// Write authorization is three-tier: the store owner (operational
// override), the account itself (sovereignty), and writers the account has
// delegated (service integration). Only the account manages its own
// delegated writers, so a writer can neither entrench itself nor escalate.
// Values are opaque strings; writes are last-write-wins with no versioning.
package attribute

import (
	"encoding/json"
	"sync"

	"github.com/arkavo-labs/accord/pkg/accorderr"
	"github.com/arkavo-labs/accord/pkg/events"
	"github.com/arkavo-labs/accord/pkg/host"
	"github.com/arkavo-labs/accord/pkg/principal"
)

type attrKey struct {
	Account   principal.Principal
	Namespace string
	Key       string
}

type writerKey struct {
	Account principal.Principal
	Writer  principal.Principal
}

// Store maps (principal, namespace, key) to values.
type Store struct {
	mu      sync.RWMutex
	env     *host.Env
	owner   principal.Principal
	attrs   map[attrKey]string
	writers map[writerKey]bool
}

// NewStore creates a store owned by the creating caller.
func NewStore(env *host.Env, owner principal.Principal) *Store {
	return &Store{
		env:     env,
		owner:   owner,
		attrs:   make(map[attrKey]string),
		writers: make(map[writerKey]bool),
	}
}

// Owner returns the store administrator.
func (s *Store) Owner() principal.Principal {
	return s.owner
}

// CanWrite reports whether caller may mutate the account's attributes:
// store owner, the account itself, or a writer the account authorized.
// Pure predicate, shared by both mutators.
func (s *Store) CanWrite(caller, account principal.Principal) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canWriteLocked(caller, account)
}

func (s *Store) canWriteLocked(caller, account principal.Principal) bool {
	return caller == s.owner || caller == account || s.writers[writerKey{account, caller}]
}

// Set writes the attribute value, overwriting unconditionally.
func (s *Store) Set(caller, account principal.Principal, namespace, key, value string) error {
	s.mu.Lock()
	if !s.canWriteLocked(caller, account) {
		s.mu.Unlock()
		return accorderr.ErrNotAuthorized
	}
	s.attrs[attrKey{account, namespace, key}] = value
	s.mu.Unlock()

	s.env.Emit(events.AttributeSet{
		Account:   account,
		Namespace: namespace,
		Key:       key,
		Value:     value,
		Writer:    caller,
	})
	return nil
}

// Remove deletes the attribute. Removing an absent key is a harmless no-op.
func (s *Store) Remove(caller, account principal.Principal, namespace, key string) error {
	s.mu.Lock()
	if !s.canWriteLocked(caller, account) {
		s.mu.Unlock()
		return accorderr.ErrNotAuthorized
	}
	delete(s.attrs, attrKey{account, namespace, key})
	s.mu.Unlock()

	s.env.Emit(events.AttributeRemoved{
		Account:   account,
		Namespace: namespace,
		Key:       key,
		Writer:    caller,
	})
	return nil
}

// Get returns the attribute value, or ok=false if absent. Public.
func (s *Store) Get(account principal.Principal, namespace, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attrs[attrKey{account, namespace, key}]
	return v, ok
}

// AuthorizeWriter delegates write access on the caller's own attributes.
// Only the account itself may manage its writer set; the store owner and
// existing writers are deliberately excluded.
func (s *Store) AuthorizeWriter(caller, account, writer principal.Principal) error {
	s.mu.Lock()
	if caller != account {
		s.mu.Unlock()
		return accorderr.ErrNotAuthorized
	}
	s.writers[writerKey{account, writer}] = true
	s.mu.Unlock()

	s.env.Emit(events.WriterAuthorized{Account: account, Writer: writer})
	return nil
}

// RevokeWriter withdraws a delegation. Account-only, like AuthorizeWriter.
func (s *Store) RevokeWriter(caller, account, writer principal.Principal) error {
	s.mu.Lock()
	if caller != account {
		s.mu.Unlock()
		return accorderr.ErrNotAuthorized
	}
	delete(s.writers, writerKey{account, writer})
	s.mu.Unlock()

	s.env.Emit(events.WriterRevoked{Account: account, Writer: writer})
	return nil
}

// IsAuthorizedWriter reports whether writer holds a delegation from the
// account. Public.
func (s *Store) IsAuthorizedWriter(account, writer principal.Principal) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writers[writerKey{account, writer}]
}

type storedAttr struct {
	Account   principal.Principal `json:"account"`
	Namespace string              `json:"namespace"`
	Key       string              `json:"key"`
	Value     string              `json:"value"`
}

type storedWriter struct {
	Account principal.Principal `json:"account"`
	Writer  principal.Principal `json:"writer"`
}

type storeState struct {
	Owner   principal.Principal `json:"owner"`
	Attrs   []storedAttr        `json:"attrs"`
	Writers []storedWriter      `json:"writers"`
}

// Snapshot serializes the store's storage for the durable substrate.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := storeState{Owner: s.owner}
	for k, v := range s.attrs {
		st.Attrs = append(st.Attrs, storedAttr{k.Account, k.Namespace, k.Key, v})
	}
	for k, ok := range s.writers {
		if ok {
			st.Writers = append(st.Writers, storedWriter{k.Account, k.Writer})
		}
	}
	return json.Marshal(st)
}

// Restore replaces the store's storage from a snapshot.
func (s *Store) Restore(data []byte) error {
	var st storeState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = st.Owner
	s.attrs = make(map[attrKey]string, len(st.Attrs))
	for _, a := range st.Attrs {
		s.attrs[attrKey{a.Account, a.Namespace, a.Key}] = a.Value
	}
	s.writers = make(map[writerKey]bool, len(st.Writers))
	for _, w := range st.Writers {
		s.writers[writerKey{w.Account, w.Writer}] = true
	}
	return nil
}
