// Package policy implements the policy engine: owner-administered access
// rules evaluated against the entitlement registry and attribute store.
//
// The engine holds no live reference into its collaborators; it stores
// their addresses as owner-set configuration and resolves them through the
// directory on every evaluation. Evaluation fails closed: an unresolvable
// collaborator, an unknown or inactive policy, or a condition error all
// deny.
package policy

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/arkavo-labs/accord/pkg/accorderr"
	"github.com/arkavo-labs/accord/pkg/directory"
	"github.com/arkavo-labs/accord/pkg/entitlement"
	"github.com/arkavo-labs/accord/pkg/events"
	"github.com/arkavo-labs/accord/pkg/host"
	"github.com/arkavo-labs/accord/pkg/principal"
)

// Engine stores policies and evaluates access decisions.
type Engine struct {
	mu           sync.RWMutex
	env          *host.Env
	owner        principal.Principal
	dir          *directory.Directory
	registryAddr directory.Address
	attrAddr     directory.Address
	policies     map[uint32]*Rule
	nextPolicyID uint32

	celEnv   *cel.Env
	programs map[uint32]cel.Program
}

// NewEngine creates an engine owned by the creating caller. The directory
// is the host's address-resolution substrate.
func NewEngine(env *host.Env, owner principal.Principal, dir *directory.Directory) (*Engine, error) {
	celEnv, err := cel.NewEnv(
		cel.Variable("principal", cel.StringType),
		cel.Variable("resource", cel.StringType),
		cel.Variable("entitlement", cel.IntType),
		cel.Variable("attributes", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("policy: create condition environment: %w", err)
	}
	return &Engine{
		env:      env,
		owner:    owner,
		dir:      dir,
		policies: make(map[uint32]*Rule),
		celEnv:   celEnv,
		programs: make(map[uint32]cel.Program),
	}, nil
}

// Owner returns the engine administrator.
func (e *Engine) Owner() principal.Principal {
	return e.owner
}

// NextPolicyID returns the id the next created policy will receive. The
// counter only increments; ids are never reused after deletion.
func (e *Engine) NextPolicyID() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nextPolicyID
}

// SetAccessRegistry configures the entitlement registry address.
// Owner-only; repeatable.
func (e *Engine) SetAccessRegistry(caller principal.Principal, addr directory.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return accorderr.ErrNotOwner
	}
	e.registryAddr = addr
	return nil
}

// SetAttributeStore configures the attribute store address. Owner-only;
// repeatable.
func (e *Engine) SetAttributeStore(caller principal.Principal, addr directory.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return accorderr.ErrNotOwner
	}
	e.attrAddr = addr
	return nil
}

// RuleSpec carries the owner-supplied fields of a new policy.
type RuleSpec struct {
	ResourceID         string
	RequiredAttributes []AttributePair
	MinEntitlement     entitlement.Level
	Condition          string
}

func validateSpec(resourceID string, attrs []AttributePair, min entitlement.Level) error {
	if err := accorderr.CheckLength(resourceID); err != nil {
		return err
	}
	if len(attrs) > accorderr.MaxAttributes {
		return accorderr.ErrTooManyAttributes
	}
	for _, a := range attrs {
		if err := accorderr.CheckLength(a.Name, a.Value); err != nil {
			return err
		}
	}
	if !min.Valid() {
		return fmt.Errorf("policy: invalid entitlement level %d", min)
	}
	return nil
}

func (e *Engine) compileCondition(expr string) (cel.Program, error) {
	if expr == "" {
		return nil, nil
	}
	ast, issues := e.celEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("policy: condition compile failed: %w", issues.Err())
	}
	prg, err := e.celEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("policy: condition program failed: %w", err)
	}
	return prg, nil
}

// Create stores a new active policy and returns its assigned id.
// Owner-only.
func (e *Engine) Create(caller principal.Principal, spec RuleSpec) (uint32, error) {
	e.mu.Lock()
	if caller != e.owner {
		e.mu.Unlock()
		return 0, accorderr.ErrNotOwner
	}
	if err := validateSpec(spec.ResourceID, spec.RequiredAttributes, spec.MinEntitlement); err != nil {
		e.mu.Unlock()
		return 0, err
	}
	prg, err := e.compileCondition(spec.Condition)
	if err != nil {
		e.mu.Unlock()
		return 0, err
	}

	id := e.nextPolicyID
	e.policies[id] = &Rule{
		ResourceID:         spec.ResourceID,
		RequiredAttributes: append([]AttributePair(nil), spec.RequiredAttributes...),
		MinEntitlement:     spec.MinEntitlement,
		Condition:          spec.Condition,
		Active:             true,
	}
	if prg != nil {
		e.programs[id] = prg
	}
	e.nextPolicyID++
	resource := spec.ResourceID
	e.mu.Unlock()

	e.env.Emit(events.PolicyCreated{PolicyID: id, ResourceID: resource})
	return id, nil
}

// Update replaces the mutable fields of an existing policy in full; this is
// not a partial patch. Owner-only.
func (e *Engine) Update(caller principal.Principal, policyID uint32, attrs []AttributePair, min entitlement.Level, condition string, active bool) error {
	e.mu.Lock()
	if caller != e.owner {
		e.mu.Unlock()
		return accorderr.ErrNotOwner
	}
	rule, ok := e.policies[policyID]
	if !ok {
		e.mu.Unlock()
		return accorderr.ErrPolicyNotFound
	}
	if err := validateSpec(rule.ResourceID, attrs, min); err != nil {
		e.mu.Unlock()
		return err
	}
	prg, err := e.compileCondition(condition)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	rule.RequiredAttributes = append([]AttributePair(nil), attrs...)
	rule.MinEntitlement = min
	rule.Condition = condition
	rule.Active = active
	if prg != nil {
		e.programs[policyID] = prg
	} else {
		delete(e.programs, policyID)
	}
	e.mu.Unlock()

	e.env.Emit(events.PolicyUpdated{PolicyID: policyID})
	return nil
}

// Delete removes a policy permanently. The id is never reassigned.
// Owner-only.
func (e *Engine) Delete(caller principal.Principal, policyID uint32) error {
	e.mu.Lock()
	if caller != e.owner {
		e.mu.Unlock()
		return accorderr.ErrNotOwner
	}
	if _, ok := e.policies[policyID]; !ok {
		e.mu.Unlock()
		return accorderr.ErrPolicyNotFound
	}
	delete(e.policies, policyID)
	delete(e.programs, policyID)
	e.mu.Unlock()

	e.env.Emit(events.PolicyDeleted{PolicyID: policyID})
	return nil
}

// Get returns a copy of the stored policy. Public.
func (e *Engine) Get(policyID uint32) (Rule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rule, ok := e.policies[policyID]
	if !ok {
		return Rule{}, false
	}
	return rule.clone(), true
}
