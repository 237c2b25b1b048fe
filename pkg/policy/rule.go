package policy

import (
	"strings"

	"github.com/arkavo-labs/accord/pkg/entitlement"
	"github.com/arkavo-labs/accord/pkg/principal"
)

// AttributePair is one required attribute assertion: the name is the
// namespaced form "namespace.key" and the value must match exactly.
type AttributePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SplitName splits a namespaced attribute name at its first dot. A name
// with no dot is treated as a key in the empty namespace.
func (a AttributePair) SplitName() (namespace, key string) {
	ns, key, ok := strings.Cut(a.Name, ".")
	if !ok {
		return "", a.Name
	}
	return ns, key
}

// Rule is a stored access policy binding a resource to required attributes
// and a minimum entitlement.
type Rule struct {
	ResourceID         string            `json:"resource_id"`
	RequiredAttributes []AttributePair   `json:"required_attributes"`
	MinEntitlement     entitlement.Level `json:"min_entitlement"`
	// Condition is an optional CEL expression evaluated after the attribute
	// checks. Empty means unconditional. Evaluation is fail-closed.
	Condition string `json:"condition,omitempty"`
	Active    bool   `json:"active"`
}

func (r *Rule) clone() Rule {
	out := *r
	out.RequiredAttributes = append([]AttributePair(nil), r.RequiredAttributes...)
	return out
}

// EntitlementReader is the registry surface the engine consults by address.
type EntitlementReader interface {
	Get(account principal.Principal) entitlement.Level
	Has(account principal.Principal, required entitlement.Level) bool
}

// AttributeReader is the attribute-store surface the engine consults by
// address.
type AttributeReader interface {
	Get(account principal.Principal, namespace, key string) (string, bool)
}
