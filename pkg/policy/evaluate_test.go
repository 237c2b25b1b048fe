package policy_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkavo-labs/accord/pkg/accorderr"
	"github.com/arkavo-labs/accord/pkg/attribute"
	"github.com/arkavo-labs/accord/pkg/directory"
	"github.com/arkavo-labs/accord/pkg/entitlement"
	"github.com/arkavo-labs/accord/pkg/events"
	"github.com/arkavo-labs/accord/pkg/host"
	"github.com/arkavo-labs/accord/pkg/policy"
	"github.com/arkavo-labs/accord/pkg/principal"
)

// evalFixture wires an engine to a live registry and attribute store through
// the directory, mirroring a full deployment.
type evalFixture struct {
	engine   *policy.Engine
	registry *entitlement.Registry
	attrs    *attribute.Store
	log      *events.Log
	owner    principal.Principal
}

func newEvalFixture(t *testing.T) *evalFixture {
	t.Helper()
	log := events.NewLog()
	env := host.NewEnv(host.NewLogicalClock(1), log)
	dir := directory.New()
	owner := principal.Principal("owner")

	registry := entitlement.NewRegistry(env, owner)
	attrs := attribute.NewStore(env, owner)
	engine, err := policy.NewEngine(env, owner, dir)
	require.NoError(t, err)

	regAddr, attrAddr := directory.NewAddress(), directory.NewAddress()
	dir.Bind(regAddr, registry)
	dir.Bind(attrAddr, attrs)
	require.NoError(t, engine.SetAccessRegistry(owner, regAddr))
	require.NoError(t, engine.SetAttributeStore(owner, attrAddr))

	return &evalFixture{engine: engine, registry: registry, attrs: attrs, log: log, owner: owner}
}

func (f *evalFixture) createPolicy(t *testing.T, spec policy.RuleSpec) uint32 {
	t.Helper()
	id, err := f.engine.Create(f.owner, spec)
	require.NoError(t, err)
	return id
}

func TestEvaluate_AllowPath(t *testing.T) {
	f := newEvalFixture(t)
	alice := principal.Principal("alice")
	id := f.createPolicy(t, policy.RuleSpec{
		ResourceID: "vault-42",
		RequiredAttributes: []policy.AttributePair{
			{Name: "opentdf.role", Value: "admin"},
		},
		MinEntitlement: entitlement.Premium,
	})

	require.NoError(t, f.registry.Grant(f.owner, alice, entitlement.Premium))
	require.NoError(t, f.attrs.Set(alice, alice, "opentdf", "role", "admin"))

	d, err := f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)
	assert.True(t, d.Allow)
	assert.Empty(t, d.Reason)
	assert.Equal(t, "vault-42", d.ResourceID)
	assert.NotEmpty(t, d.DecisionHash)
	assert.Len(t, f.log.ByName("AccessGranted"), 1)
}

func TestEvaluate_UnknownPolicy(t *testing.T) {
	f := newEvalFixture(t)

	d, err := f.engine.Evaluate("alice", "alice", 99)
	assert.ErrorIs(t, err, accorderr.ErrPolicyNotFound)
	assert.False(t, d.Allow)
	assert.Zero(t, f.log.Len(), "undecided evaluations emit no event")
}

func TestEvaluate_InactivePolicyDeniesFirst(t *testing.T) {
	f := newEvalFixture(t)
	alice := principal.Principal("alice")
	id := f.createPolicy(t, policy.RuleSpec{
		ResourceID:     "vault-42",
		MinEntitlement: entitlement.VIP,
	})
	require.NoError(t, f.engine.Update(f.owner, id, nil, entitlement.VIP, "", false))

	// Inactivity outranks the entitlement shortfall the account also has.
	d, err := f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)
	assert.False(t, d.Allow)
	assert.Equal(t, policy.ReasonPolicyInactive, d.Reason)
	assert.Len(t, f.log.ByName("AccessDenied"), 1)
}

func TestEvaluate_EntitlementShortfall(t *testing.T) {
	f := newEvalFixture(t)
	alice := principal.Principal("alice")
	id := f.createPolicy(t, policy.RuleSpec{
		ResourceID: "vault-42",
		RequiredAttributes: []policy.AttributePair{
			{Name: "opentdf.role", Value: "admin"},
		},
		MinEntitlement: entitlement.Premium,
	})
	require.NoError(t, f.registry.Grant(f.owner, alice, entitlement.Basic))
	require.NoError(t, f.attrs.Set(alice, alice, "opentdf", "role", "admin"))

	d, err := f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)
	assert.False(t, d.Allow)
	assert.Equal(t, fmt.Sprintf("%s: requires %s", policy.ReasonEntitlementShortfall, entitlement.Premium), d.Reason)
}

func TestEvaluate_MissingAndMismatchedAttribute(t *testing.T) {
	f := newEvalFixture(t)
	alice := principal.Principal("alice")
	id := f.createPolicy(t, policy.RuleSpec{
		ResourceID: "vault-42",
		RequiredAttributes: []policy.AttributePair{
			{Name: "opentdf.role", Value: "admin"},
		},
		MinEntitlement: entitlement.None,
	})

	d, err := f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)
	assert.Equal(t, policy.ReasonMissingAttribute+" opentdf.role", d.Reason)

	require.NoError(t, f.attrs.Set(alice, alice, "opentdf", "role", "viewer"))
	d, err = f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)
	assert.Equal(t, policy.ReasonAttributeMismatch+" opentdf.role", d.Reason)
}

func TestEvaluate_ValueMatchIsExact(t *testing.T) {
	f := newEvalFixture(t)
	alice := principal.Principal("alice")
	id := f.createPolicy(t, policy.RuleSpec{
		ResourceID: "vault-42",
		RequiredAttributes: []policy.AttributePair{
			{Name: "opentdf.role", Value: "admin"},
		},
	})
	require.NoError(t, f.attrs.Set(alice, alice, "opentdf", "role", "Admin"))

	d, err := f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)
	assert.False(t, d.Allow, "match is case-sensitive byte equality")
}

func TestEvaluate_UnconfiguredCollaboratorsFailClosed(t *testing.T) {
	log := events.NewLog()
	env := host.NewEnv(host.NewLogicalClock(1), log)
	engine, err := policy.NewEngine(env, "owner", directory.New())
	require.NoError(t, err)
	id, err := engine.Create("owner", policy.RuleSpec{ResourceID: "vault-42"})
	require.NoError(t, err)

	d, err := engine.Evaluate("alice", "alice", id)
	assert.ErrorIs(t, err, accorderr.ErrContractNotConfigured)
	assert.False(t, d.Allow)
}

func TestEvaluate_DanglingAddressFailsClosed(t *testing.T) {
	f := newEvalFixture(t)
	id := f.createPolicy(t, policy.RuleSpec{ResourceID: "vault-42"})

	// Point the registry binding at an address nothing is bound to.
	require.NoError(t, f.engine.SetAccessRegistry(f.owner, directory.NewAddress()))

	d, err := f.engine.Evaluate("alice", "alice", id)
	assert.ErrorIs(t, err, accorderr.ErrContractNotConfigured)
	assert.False(t, d.Allow)
}

func TestEvaluate_IsReadOnlyAndDeterministic(t *testing.T) {
	f := newEvalFixture(t)
	alice := principal.Principal("alice")
	id := f.createPolicy(t, policy.RuleSpec{
		ResourceID: "vault-42",
		RequiredAttributes: []policy.AttributePair{
			{Name: "opentdf.role", Value: "admin"},
		},
		MinEntitlement: entitlement.Basic,
	})
	require.NoError(t, f.registry.Grant(f.owner, alice, entitlement.Basic))
	require.NoError(t, f.attrs.Set(alice, alice, "opentdf", "role", "admin"))

	first, err := f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)
	second, err := f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same state, same decision")
	assert.Equal(t, first.DecisionHash, second.DecisionHash)

	// State is untouched apart from the audit trail.
	assert.Equal(t, entitlement.Basic, f.registry.Get(alice))
	v, _ := f.attrs.Get(alice, "opentdf", "role")
	assert.Equal(t, "admin", v)
	rule, _ := f.engine.Get(id)
	assert.True(t, rule.Active)
}

func TestEvaluate_Condition(t *testing.T) {
	f := newEvalFixture(t)
	alice := principal.Principal("alice")
	require.NoError(t, f.registry.Grant(f.owner, alice, entitlement.VIP))
	require.NoError(t, f.attrs.Set(alice, alice, "kyc", "region", "eu"))

	passing := f.createPolicy(t, policy.RuleSpec{
		ResourceID: "vault-42",
		RequiredAttributes: []policy.AttributePair{
			{Name: "kyc.region", Value: "eu"},
		},
		Condition: `entitlement >= 2 && attributes["kyc.region"] == "eu"`,
	})
	failing := f.createPolicy(t, policy.RuleSpec{
		ResourceID: "vault-42",
		Condition:  `principal == "bob"`,
	})

	d, err := f.engine.Evaluate(alice, alice, passing)
	require.NoError(t, err)
	assert.True(t, d.Allow)

	d, err = f.engine.Evaluate(alice, alice, failing)
	require.NoError(t, err)
	assert.False(t, d.Allow)
	assert.Equal(t, policy.ReasonConditionFailed, d.Reason)
}

// The canonical cross-component scenario: a payment-driven entitlement plus
// a self-asserted attribute opens access; a downgrade closes it again.
func TestEvaluate_EntitlementChangeFlipsDecision(t *testing.T) {
	f := newEvalFixture(t)
	alice := principal.Principal("alice")
	id := f.createPolicy(t, policy.RuleSpec{
		ResourceID: "vault-42",
		RequiredAttributes: []policy.AttributePair{
			{Name: "opentdf.role", Value: "admin"},
		},
		MinEntitlement: entitlement.Premium,
	})
	require.NoError(t, f.registry.Grant(f.owner, alice, entitlement.Premium))
	require.NoError(t, f.attrs.Set(alice, alice, "opentdf", "role", "admin"))

	d, err := f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)
	require.True(t, d.Allow)

	require.NoError(t, f.registry.Grant(f.owner, alice, entitlement.Basic))

	d, err = f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)
	assert.False(t, d.Allow)

	allowHash := f.log.ByName("AccessGranted")
	denyHash := f.log.ByName("AccessDenied")
	assert.Len(t, allowHash, 1)
	assert.Len(t, denyHash, 1)
}

func TestEvaluate_AllowAndDenyHashesDiffer(t *testing.T) {
	f := newEvalFixture(t)
	alice := principal.Principal("alice")
	id := f.createPolicy(t, policy.RuleSpec{
		ResourceID:     "vault-42",
		MinEntitlement: entitlement.Basic,
	})

	deny, err := f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)
	require.NoError(t, f.registry.Grant(f.owner, alice, entitlement.Basic))
	allow, err := f.engine.Evaluate(alice, alice, id)
	require.NoError(t, err)

	assert.NotEqual(t, deny.DecisionHash, allow.DecisionHash)
}
