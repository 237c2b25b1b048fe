package policy

import (
	"encoding/json"
	"fmt"

	"github.com/arkavo-labs/accord/pkg/directory"
	"github.com/arkavo-labs/accord/pkg/principal"

	"github.com/google/cel-go/cel"
)

type engineState struct {
	Owner        principal.Principal `json:"owner"`
	RegistryAddr directory.Address   `json:"registry_addr,omitempty"`
	AttrAddr     directory.Address   `json:"attribute_addr,omitempty"`
	NextPolicyID uint32              `json:"next_policy_id"`
	Policies     map[uint32]*Rule    `json:"policies"`
}

// Snapshot serializes the engine's storage for the durable substrate.
// Compiled condition programs are not serialized; Restore recompiles them.
func (e *Engine) Snapshot() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return json.Marshal(engineState{
		Owner:        e.owner,
		RegistryAddr: e.registryAddr,
		AttrAddr:     e.attrAddr,
		NextPolicyID: e.nextPolicyID,
		Policies:     e.policies,
	})
}

// Restore replaces the engine's storage from a snapshot.
func (e *Engine) Restore(data []byte) error {
	var st engineState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}

	programs := make(map[uint32]cel.Program)
	for id, rule := range st.Policies {
		if rule.Condition == "" {
			continue
		}
		prg, err := e.compileCondition(rule.Condition)
		if err != nil {
			return fmt.Errorf("policy %d: %w", id, err)
		}
		programs[id] = prg
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.owner = st.Owner
	e.registryAddr = st.RegistryAddr
	e.attrAddr = st.AttrAddr
	e.nextPolicyID = st.NextPolicyID
	e.policies = st.Policies
	if e.policies == nil {
		e.policies = make(map[uint32]*Rule)
	}
	e.programs = programs
	return nil
}
