package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a deployment profile: the owner and the fixed addresses of the
// four components, so redeployments keep their identities stable.
type Profile struct {
	Name  string `yaml:"name" json:"name"`
	Owner string `yaml:"owner" json:"owner"`

	Addresses ComponentAddresses `yaml:"addresses" json:"addresses"`

	// Processors are additionally authorized on the payment ledger at
	// startup.
	Processors []string `yaml:"processors,omitempty" json:"processors,omitempty"`
}

// ComponentAddresses names each component's directory address.
type ComponentAddresses struct {
	EntitlementRegistry string `yaml:"entitlement_registry" json:"entitlement_registry"`
	AttributeStore      string `yaml:"attribute_store" json:"attribute_store"`
	PolicyEngine        string `yaml:"policy_engine" json:"policy_engine"`
	PaymentLedger       string `yaml:"payment_ledger" json:"payment_ledger"`
}

// LoadProfile loads a deployment profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read profile %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("config: profile %s: %w", path, err)
	}
	return &p, nil
}

// Validate checks the profile names an owner and all four addresses.
func (p *Profile) Validate() error {
	if p.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	addrs := map[string]string{
		"entitlement_registry": p.Addresses.EntitlementRegistry,
		"attribute_store":      p.Addresses.AttributeStore,
		"policy_engine":        p.Addresses.PolicyEngine,
		"payment_ledger":       p.Addresses.PaymentLedger,
	}
	for name, addr := range addrs {
		if addr == "" {
			return fmt.Errorf("addresses.%s is required", name)
		}
	}
	return nil
}
