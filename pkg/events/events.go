// Package events defines the fixed set of typed audit events the
// decision-core components emit, plus the sinks that record them.
//
// Events are emitted on every committed state change, never on reads and
// never for failed mutations. They are append-only and carry enough fields
// (principal, policy id, payment id) for an external indexer to reconstruct
// full history.
package events

import "github.com/arkavo-labs/accord/pkg/principal"

// Event is a typed audit event. Implementations are the closed set below.
type Event interface {
	// EventName returns the stable event name used for indexing.
	EventName() string
}

// Envelope wraps an event with its emission metadata. Time is the logical
// host timestamp at emission; Sequence is assigned by the emitting host and
// is strictly increasing per host.
type Envelope struct {
	ID       string `json:"id"`
	Sequence uint64 `json:"sequence"`
	Time     uint64 `json:"time"`
	Name     string `json:"name"`
	Event    Event  `json:"event"`
}

// Sink receives emitted envelopes.
type Sink interface {
	Emit(env *Envelope) error
}

// Entitlement registry events.

type EntitlementGranted struct {
	Account principal.Principal `json:"account"`
	Level   uint8               `json:"level"`
}

func (EntitlementGranted) EventName() string { return "EntitlementGranted" }

type EntitlementRevoked struct {
	Account principal.Principal `json:"account"`
}

func (EntitlementRevoked) EventName() string { return "EntitlementRevoked" }

// Attribute store events.

type AttributeSet struct {
	Account   principal.Principal `json:"account"`
	Namespace string              `json:"namespace"`
	Key       string              `json:"key"`
	Value     string              `json:"value"`
	Writer    principal.Principal `json:"writer"`
}

func (AttributeSet) EventName() string { return "AttributeSet" }

type AttributeRemoved struct {
	Account   principal.Principal `json:"account"`
	Namespace string              `json:"namespace"`
	Key       string              `json:"key"`
	Writer    principal.Principal `json:"writer"`
}

func (AttributeRemoved) EventName() string { return "AttributeRemoved" }

type WriterAuthorized struct {
	Account principal.Principal `json:"account"`
	Writer  principal.Principal `json:"writer"`
}

func (WriterAuthorized) EventName() string { return "WriterAuthorized" }

type WriterRevoked struct {
	Account principal.Principal `json:"account"`
	Writer  principal.Principal `json:"writer"`
}

func (WriterRevoked) EventName() string { return "WriterRevoked" }

// Policy engine events.

type PolicyCreated struct {
	PolicyID   uint32 `json:"policy_id"`
	ResourceID string `json:"resource_id"`
}

func (PolicyCreated) EventName() string { return "PolicyCreated" }

type PolicyUpdated struct {
	PolicyID uint32 `json:"policy_id"`
}

func (PolicyUpdated) EventName() string { return "PolicyUpdated" }

type PolicyDeleted struct {
	PolicyID uint32 `json:"policy_id"`
}

func (PolicyDeleted) EventName() string { return "PolicyDeleted" }

type AccessGranted struct {
	Account    principal.Principal `json:"account"`
	PolicyID   uint32              `json:"policy_id"`
	ResourceID string              `json:"resource_id"`
}

func (AccessGranted) EventName() string { return "AccessGranted" }

type AccessDenied struct {
	Account    principal.Principal `json:"account"`
	PolicyID   uint32              `json:"policy_id"`
	ResourceID string              `json:"resource_id"`
	Reason     string              `json:"reason"`
}

func (AccessDenied) EventName() string { return "AccessDenied" }

// Payment ledger events.

type PaymentRecorded struct {
	PaymentID     uint32              `json:"payment_id"`
	Account       principal.Principal `json:"account"`
	Provider      string              `json:"provider"`
	TransactionID string              `json:"transaction_id"`
	Amount        uint64              `json:"amount"`
}

func (PaymentRecorded) EventName() string { return "PaymentRecorded" }

type PaymentCompleted struct {
	PaymentID          uint32              `json:"payment_id"`
	Account            principal.Principal `json:"account"`
	EntitlementGranted uint8               `json:"entitlement_granted"`
}

func (PaymentCompleted) EventName() string { return "PaymentCompleted" }

type PaymentFailed struct {
	PaymentID uint32 `json:"payment_id"`
	Reason    string `json:"reason"`
}

func (PaymentFailed) EventName() string { return "PaymentFailed" }

type PaymentRefunded struct {
	PaymentID uint32              `json:"payment_id"`
	Account   principal.Principal `json:"account"`
}

func (PaymentRefunded) EventName() string { return "PaymentRefunded" }

type ProcessorAuthorized struct {
	Processor principal.Principal `json:"processor"`
}

func (ProcessorAuthorized) EventName() string { return "ProcessorAuthorized" }
