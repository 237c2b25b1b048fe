// Package entitlement implements the entitlement registry: the component
// mapping principals to hierarchical entitlement levels.
//
// The registry is a leaf component with no collaborators. Grants and
// revocations are owner-gated; lookups are public and side-effect free.
// Absence of an entry is equivalent to level None.
package entitlement

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/arkavo-labs/accord/pkg/accorderr"
	"github.com/arkavo-labs/accord/pkg/events"
	"github.com/arkavo-labs/accord/pkg/host"
	"github.com/arkavo-labs/accord/pkg/principal"
)

// Registry maps principals to entitlement levels. All mutations are
// serialized by the registry's own guard.
type Registry struct {
	mu     sync.RWMutex
	env    *host.Env
	owner  principal.Principal
	levels map[principal.Principal]Level
}

// NewRegistry creates a registry owned by the creating caller. Ownership is
// immutable thereafter.
func NewRegistry(env *host.Env, owner principal.Principal) *Registry {
	return &Registry{
		env:    env,
		owner:  owner,
		levels: make(map[principal.Principal]Level),
	}
}

// Owner returns the registry administrator.
func (r *Registry) Owner() principal.Principal {
	return r.owner
}

// Grant sets the account's entitlement level. Owner-only; the level must be
// a defined tier. Re-granting the same level is observationally a no-op but
// still emits an event.
func (r *Registry) Grant(caller, account principal.Principal, level Level) error {
	r.mu.Lock()
	if caller != r.owner {
		r.mu.Unlock()
		return accorderr.ErrNotOwner
	}
	if !level.Valid() {
		r.mu.Unlock()
		return fmt.Errorf("entitlement: invalid level %d", level)
	}
	r.levels[account] = level
	r.mu.Unlock()

	r.env.Emit(events.EntitlementGranted{Account: account, Level: uint8(level)})
	return nil
}

// Revoke resets the account's entitlement to None. Owner-only.
func (r *Registry) Revoke(caller, account principal.Principal) error {
	r.mu.Lock()
	if caller != r.owner {
		r.mu.Unlock()
		return accorderr.ErrNotOwner
	}
	delete(r.levels, account)
	r.mu.Unlock()

	r.env.Emit(events.EntitlementRevoked{Account: account})
	return nil
}

// Get returns the account's stored level, or None if absent. Public.
func (r *Registry) Get(account principal.Principal) Level {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.levels[account]
}

// Has reports whether the account's level satisfies the required tier.
// Public.
func (r *Registry) Has(account principal.Principal, required Level) bool {
	return r.Get(account).Satisfies(required)
}

type registryState struct {
	Owner  principal.Principal           `json:"owner"`
	Levels map[principal.Principal]Level `json:"levels"`
}

// Snapshot serializes the registry's storage for the durable substrate.
func (r *Registry) Snapshot() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return json.Marshal(registryState{Owner: r.owner, Levels: r.levels})
}

// Restore replaces the registry's storage from a snapshot.
func (r *Registry) Restore(data []byte) error {
	var st registryState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	for account, level := range st.Levels {
		if !level.Valid() {
			return fmt.Errorf("entitlement: snapshot holds invalid level %d for %s", level, account)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owner = st.Owner
	r.levels = st.Levels
	if r.levels == nil {
		r.levels = make(map[principal.Principal]Level)
	}
	return nil
}
