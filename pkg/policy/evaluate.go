package policy

import (
	"fmt"

	"github.com/arkavo-labs/accord/pkg/accorderr"
	"github.com/arkavo-labs/accord/pkg/canonical"
	"github.com/arkavo-labs/accord/pkg/events"
	"github.com/arkavo-labs/accord/pkg/principal"
)

// Deny reason prefixes, in precedence order. The surfaced reason names the
// first failing requirement category for debuggability.
const (
	ReasonPolicyInactive       = "policy inactive"
	ReasonEntitlementShortfall = "insufficient entitlement"
	ReasonMissingAttribute     = "missing attribute"
	ReasonAttributeMismatch    = "attribute mismatch"
	ReasonConditionFailed      = "condition not satisfied"
	ReasonConditionError       = "condition error"
)

// Decision is the outcome of one evaluation. The hash is the SHA-256 of
// the JCS-canonical decision, stable for a fixed store state.
type Decision struct {
	Allow        bool   `json:"allow"`
	PolicyID     uint32 `json:"policy_id"`
	ResourceID   string `json:"resource_id"`
	Reason       string `json:"reason,omitempty"`
	DecisionHash string `json:"decision_hash"`
}

func (e *Engine) collaborators() (EntitlementReader, AttributeReader, error) {
	e.mu.RLock()
	regAddr, attrAddr := e.registryAddr, e.attrAddr
	e.mu.RUnlock()

	if regAddr == "" || attrAddr == "" {
		return nil, nil, accorderr.ErrContractNotConfigured
	}
	regAny, ok := e.dir.Lookup(regAddr)
	if !ok {
		return nil, nil, accorderr.ErrContractNotConfigured
	}
	reg, ok := regAny.(EntitlementReader)
	if !ok {
		return nil, nil, accorderr.ErrContractNotConfigured
	}
	attrAny, ok := e.dir.Lookup(attrAddr)
	if !ok {
		return nil, nil, accorderr.ErrContractNotConfigured
	}
	attrs, ok := attrAny.(AttributeReader)
	if !ok {
		return nil, nil, accorderr.ErrContractNotConfigured
	}
	return reg, attrs, nil
}

// Evaluate decides whether the account may access the policy's resource.
// It reads the entitlement registry and attribute store by address, mutates
// nothing, and emits exactly one AccessGranted or AccessDenied event per
// decided evaluation. Unknown policies and unconfigured collaborators fail
// closed with the taxonomy error and no event.
func (e *Engine) Evaluate(caller, account principal.Principal, policyID uint32) (Decision, error) {
	_ = caller // evaluation is public; the caller is recorded only by the host

	e.mu.RLock()
	stored, ok := e.policies[policyID]
	if !ok {
		e.mu.RUnlock()
		return Decision{Allow: false, PolicyID: policyID}, accorderr.ErrPolicyNotFound
	}
	rule := stored.clone()
	prg := e.programs[policyID]
	e.mu.RUnlock()

	if !rule.Active {
		return e.deny(account, policyID, rule.ResourceID, ReasonPolicyInactive), nil
	}

	reg, attrs, err := e.collaborators()
	if err != nil {
		return Decision{Allow: false, PolicyID: policyID, ResourceID: rule.ResourceID}, err
	}

	if !reg.Has(account, rule.MinEntitlement) {
		reason := fmt.Sprintf("%s: requires %s", ReasonEntitlementShortfall, rule.MinEntitlement)
		return e.deny(account, policyID, rule.ResourceID, reason), nil
	}

	bound := make(map[string]string, len(rule.RequiredAttributes))
	for _, req := range rule.RequiredAttributes {
		ns, key := req.SplitName()
		actual, present := attrs.Get(account, ns, key)
		if !present {
			reason := fmt.Sprintf("%s %s", ReasonMissingAttribute, req.Name)
			return e.deny(account, policyID, rule.ResourceID, reason), nil
		}
		if actual != req.Value {
			reason := fmt.Sprintf("%s %s", ReasonAttributeMismatch, req.Name)
			return e.deny(account, policyID, rule.ResourceID, reason), nil
		}
		bound[req.Name] = actual
	}

	if prg != nil {
		out, _, evalErr := prg.Eval(map[string]any{
			"principal":   account.String(),
			"resource":    rule.ResourceID,
			"entitlement": int64(reg.Get(account)),
			"attributes":  bound,
		})
		if evalErr != nil {
			return e.deny(account, policyID, rule.ResourceID, ReasonConditionError), nil
		}
		allowed, isBool := out.Value().(bool)
		if !isBool {
			return e.deny(account, policyID, rule.ResourceID, ReasonConditionError), nil
		}
		if !allowed {
			return e.deny(account, policyID, rule.ResourceID, ReasonConditionFailed), nil
		}
	}

	decision := e.finalize(Decision{Allow: true, PolicyID: policyID, ResourceID: rule.ResourceID})
	e.env.Emit(events.AccessGranted{
		Account:    account,
		PolicyID:   policyID,
		ResourceID: rule.ResourceID,
	})
	return decision, nil
}

func (e *Engine) deny(account principal.Principal, policyID uint32, resourceID, reason string) Decision {
	decision := e.finalize(Decision{
		Allow:      false,
		PolicyID:   policyID,
		ResourceID: resourceID,
		Reason:     reason,
	})
	e.env.Emit(events.AccessDenied{
		Account:    account,
		PolicyID:   policyID,
		ResourceID: resourceID,
		Reason:     reason,
	})
	return decision
}

func (e *Engine) finalize(d Decision) Decision {
	hash, err := canonical.Hash(struct {
		Allow      bool   `json:"allow"`
		PolicyID   uint32 `json:"policy_id"`
		ResourceID string `json:"resource_id"`
		Reason     string `json:"reason"`
	}{d.Allow, d.PolicyID, d.ResourceID, d.Reason})
	if err == nil {
		d.DecisionHash = hash
	}
	return d
}
