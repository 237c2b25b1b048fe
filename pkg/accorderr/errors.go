// Package accorderr defines the closed error taxonomy shared by all
// decision-core components.
//
// Every mutating entry point fails fast with one of these sentinels and
// leaves component state unchanged. Read-only queries never return a
// taxonomy error; absence is expressed as an absence value.
package accorderr

import "errors"

var (
	// ErrNotOwner is returned when a caller lacks administrative privilege
	// for an owner-gated operation.
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrNotAuthorized is returned when a caller lacks the delegated
	// privilege required for a mutation (attribute writes).
	ErrNotAuthorized = errors.New("caller is not authorized")

	// ErrNotAuthorizedProcessor is returned when a caller is not in the
	// payment ledger's authorized-processor set.
	ErrNotAuthorizedProcessor = errors.New("caller is not an authorized processor")

	// ErrPolicyNotFound is returned when a referenced policy id does not exist.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrPaymentNotFound is returned when a referenced payment id does not exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrPaymentAlreadyExists is returned when a transaction id is already
	// indexed by the payment ledger.
	ErrPaymentAlreadyExists = errors.New("payment already exists for transaction")

	// ErrInvalidStatus is returned when a payment transition is illegal from
	// the record's current status.
	ErrInvalidStatus = errors.New("invalid payment status for transition")

	// ErrContractNotConfigured is returned when a cross-component call is
	// attempted before the collaborator address is set.
	ErrContractNotConfigured = errors.New("collaborator contract not configured")

	// ErrInputTooLong is returned when a string input exceeds MaxStringLength.
	ErrInputTooLong = errors.New("input exceeds maximum length")

	// ErrTooManyAttributes is returned when a policy carries more than
	// MaxAttributes required attributes.
	ErrTooManyAttributes = errors.New("too many required attributes")
)

// Input bounds enforced at every write boundary. Identifiers are otherwise
// opaque: no trimming, case-folding, or format validation.
const (
	// MaxStringLength bounds resource ids, attribute names/values, payment
	// providers, and transaction ids.
	MaxStringLength = 256

	// MaxAttributes bounds the required-attribute list of a single policy.
	MaxAttributes = 50
)

// CheckLength returns ErrInputTooLong if any of the given strings exceeds
// MaxStringLength bytes.
func CheckLength(inputs ...string) error {
	for _, s := range inputs {
		if len(s) > MaxStringLength {
			return ErrInputTooLong
		}
	}
	return nil
}
