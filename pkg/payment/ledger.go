// Package payment implements the payment ledger: the component recording
// payment transactions and driving entitlement grants and revocations in
// the entitlement registry.
//
// Each payment moves through a closed status machine (Pending → Completed →
// Refunded, or Pending → Failed). Recording is made retry-safe by the
// transaction-id uniqueness index. Completion and refund commit the local
// status first and then attempt the registry call; the two are not atomic
// across the component boundary, so the call outcome is surfaced to the
// caller and Reconcile exposes the drift a supervisor must repair.
package payment

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/arkavo-labs/accord/pkg/accorderr"
	"github.com/arkavo-labs/accord/pkg/directory"
	"github.com/arkavo-labs/accord/pkg/entitlement"
	"github.com/arkavo-labs/accord/pkg/events"
	"github.com/arkavo-labs/accord/pkg/host"
	"github.com/arkavo-labs/accord/pkg/principal"
)

// Payment is one recorded payment transaction.
type Payment struct {
	ID                 uint32              `json:"id"`
	Account            principal.Principal `json:"account"`
	Provider           string              `json:"provider"`
	TransactionID      string              `json:"transaction_id"`
	Amount             uint64              `json:"amount"`
	EntitlementGranted entitlement.Level   `json:"entitlement_granted"`
	Status             Status              `json:"status"`
	Timestamp          uint64              `json:"timestamp"`
}

// EntitlementWriter is the registry surface the ledger drives by address.
type EntitlementWriter interface {
	Grant(caller, account principal.Principal, level entitlement.Level) error
	Revoke(caller, account principal.Principal) error
}

// EntitlementReader is the registry surface Reconcile consults.
type EntitlementReader interface {
	Get(account principal.Principal) entitlement.Level
}

// RegistryOutcome reports the cross-component side of a completion or
// refund. The local status transition has already committed when the
// outcome is returned; a non-nil Err means the registry and the ledger have
// drifted and reconciliation is the caller's responsibility.
type RegistryOutcome struct {
	Attempted bool
	Err       error
}

// Ledger records payments and their lifecycle.
type Ledger struct {
	mu            sync.RWMutex
	env           *host.Env
	owner         principal.Principal
	identity      principal.Principal
	dir           *directory.Directory
	registryAddr  directory.Address
	payments      map[uint32]*Payment
	byTransaction map[string]uint32
	nextPaymentID uint32
	processors    map[principal.Principal]bool
}

// NewLedger creates a ledger owned by the creating caller. The owner is
// automatically an authorized processor and is also the identity the
// ledger presents on outbound registry calls until WithIdentity overrides
// it.
func NewLedger(env *host.Env, owner principal.Principal, dir *directory.Directory) *Ledger {
	return &Ledger{
		env:           env,
		owner:         owner,
		identity:      owner,
		dir:           dir,
		payments:      make(map[uint32]*Payment),
		byTransaction: make(map[string]uint32),
		processors:    map[principal.Principal]bool{owner: true},
	}
}

// WithIdentity sets the principal the ledger uses as caller on registry
// calls. The registry only accepts grants from its own owner, so this must
// match the registry's administrator for the coupling to land.
func (l *Ledger) WithIdentity(p principal.Principal) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.identity = p
	return l
}

// Owner returns the ledger administrator.
func (l *Ledger) Owner() principal.Principal {
	return l.owner
}

// Identity returns the principal used on outbound registry calls.
func (l *Ledger) Identity() principal.Principal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.identity
}

// NextPaymentID returns the id the next recorded payment will receive.
func (l *Ledger) NextPaymentID() uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextPaymentID
}

// SetAccessRegistry configures the entitlement registry address.
// Owner-only; repeatable.
func (l *Ledger) SetAccessRegistry(caller principal.Principal, addr directory.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return accorderr.ErrNotOwner
	}
	l.registryAddr = addr
	return nil
}

// AuthorizeProcessor adds a principal to the authorized-processor set.
// Owner-only.
func (l *Ledger) AuthorizeProcessor(caller, processor principal.Principal) error {
	l.mu.Lock()
	if caller != l.owner {
		l.mu.Unlock()
		return accorderr.ErrNotOwner
	}
	l.processors[processor] = true
	l.mu.Unlock()

	l.env.Emit(events.ProcessorAuthorized{Processor: processor})
	return nil
}

// IsAuthorizedProcessor reports whether the account may drive payment
// lifecycles. Public.
func (l *Ledger) IsAuthorizedProcessor(account principal.Principal) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.processors[account]
}

// Record stores a new Pending payment and returns its assigned id. The
// transaction id must never have been recorded before; retries of the same
// external transaction are rejected, not duplicated.
func (l *Ledger) Record(caller, account principal.Principal, provider, transactionID string, amount uint64, granted entitlement.Level) (uint32, error) {
	l.mu.Lock()
	if !l.processors[caller] {
		l.mu.Unlock()
		return 0, accorderr.ErrNotAuthorizedProcessor
	}
	if err := accorderr.CheckLength(provider, transactionID); err != nil {
		l.mu.Unlock()
		return 0, err
	}
	if !granted.Valid() {
		l.mu.Unlock()
		return 0, fmt.Errorf("payment: invalid entitlement level %d", granted)
	}
	if _, exists := l.byTransaction[transactionID]; exists {
		l.mu.Unlock()
		return 0, accorderr.ErrPaymentAlreadyExists
	}

	id := l.nextPaymentID
	l.payments[id] = &Payment{
		ID:                 id,
		Account:            account,
		Provider:           provider,
		TransactionID:      transactionID,
		Amount:             amount,
		EntitlementGranted: granted,
		Status:             StatusPending,
		Timestamp:          l.env.Now(),
	}
	l.byTransaction[transactionID] = id
	l.nextPaymentID++
	l.mu.Unlock()

	l.env.Emit(events.PaymentRecorded{
		PaymentID:     id,
		Account:       account,
		Provider:      provider,
		TransactionID: transactionID,
		Amount:        amount,
	})
	return id, nil
}

// Complete marks a Pending payment Completed and grants the recorded
// entitlement through the registry. The status commits locally before the
// registry call; see RegistryOutcome.
func (l *Ledger) Complete(caller principal.Principal, paymentID uint32) (RegistryOutcome, error) {
	l.mu.Lock()
	if !l.processors[caller] {
		l.mu.Unlock()
		return RegistryOutcome{}, accorderr.ErrNotAuthorizedProcessor
	}
	p, ok := l.payments[paymentID]
	if !ok {
		l.mu.Unlock()
		return RegistryOutcome{}, accorderr.ErrPaymentNotFound
	}
	if !p.Status.CanTransition(StatusCompleted) {
		l.mu.Unlock()
		return RegistryOutcome{}, accorderr.ErrInvalidStatus
	}
	p.Status = StatusCompleted
	account, granted := p.Account, p.EntitlementGranted
	identity := l.identity
	l.mu.Unlock()

	l.env.Emit(events.PaymentCompleted{
		PaymentID:          paymentID,
		Account:            account,
		EntitlementGranted: uint8(granted),
	})

	writer, err := l.registryWriter()
	if err != nil {
		return RegistryOutcome{Err: err}, nil
	}
	return RegistryOutcome{Attempted: true, Err: writer.Grant(identity, account, granted)}, nil
}

// Fail marks a Pending payment Failed. Terminal; no entitlement side
// effect.
func (l *Ledger) Fail(caller principal.Principal, paymentID uint32, reason string) error {
	l.mu.Lock()
	if !l.processors[caller] {
		l.mu.Unlock()
		return accorderr.ErrNotAuthorizedProcessor
	}
	p, ok := l.payments[paymentID]
	if !ok {
		l.mu.Unlock()
		return accorderr.ErrPaymentNotFound
	}
	if !p.Status.CanTransition(StatusFailed) {
		l.mu.Unlock()
		return accorderr.ErrInvalidStatus
	}
	p.Status = StatusFailed
	l.mu.Unlock()

	l.env.Emit(events.PaymentFailed{PaymentID: paymentID, Reason: reason})
	return nil
}

// Refund marks a Completed payment Refunded and revokes the account's
// entitlement through the registry. Same two-phase shape as Complete.
func (l *Ledger) Refund(caller principal.Principal, paymentID uint32) (RegistryOutcome, error) {
	l.mu.Lock()
	if !l.processors[caller] {
		l.mu.Unlock()
		return RegistryOutcome{}, accorderr.ErrNotAuthorizedProcessor
	}
	p, ok := l.payments[paymentID]
	if !ok {
		l.mu.Unlock()
		return RegistryOutcome{}, accorderr.ErrPaymentNotFound
	}
	if !p.Status.CanTransition(StatusRefunded) {
		l.mu.Unlock()
		return RegistryOutcome{}, accorderr.ErrInvalidStatus
	}
	p.Status = StatusRefunded
	account := p.Account
	identity := l.identity
	l.mu.Unlock()

	l.env.Emit(events.PaymentRefunded{PaymentID: paymentID, Account: account})

	writer, err := l.registryWriter()
	if err != nil {
		return RegistryOutcome{Err: err}, nil
	}
	return RegistryOutcome{Attempted: true, Err: writer.Revoke(identity, account)}, nil
}

// GetPayment returns a copy of the payment record. Public.
func (l *Ledger) GetPayment(paymentID uint32) (Payment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.payments[paymentID]
	if !ok {
		return Payment{}, false
	}
	return *p, true
}

// GetPaymentByTransaction returns the payment id recorded for the external
// transaction id. This is the idempotency lookup for retrying callers.
// Public.
func (l *Ledger) GetPaymentByTransaction(transactionID string) (uint32, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.byTransaction[transactionID]
	return id, ok
}

func (l *Ledger) registryWriter() (EntitlementWriter, error) {
	l.mu.RLock()
	addr := l.registryAddr
	l.mu.RUnlock()
	if addr == "" {
		return nil, accorderr.ErrContractNotConfigured
	}
	bound, ok := l.dir.Lookup(addr)
	if !ok {
		return nil, accorderr.ErrContractNotConfigured
	}
	writer, ok := bound.(EntitlementWriter)
	if !ok {
		return nil, accorderr.ErrContractNotConfigured
	}
	return writer, nil
}

func (l *Ledger) registryReader() (EntitlementReader, error) {
	l.mu.RLock()
	addr := l.registryAddr
	l.mu.RUnlock()
	if addr == "" {
		return nil, accorderr.ErrContractNotConfigured
	}
	bound, ok := l.dir.Lookup(addr)
	if !ok {
		return nil, accorderr.ErrContractNotConfigured
	}
	reader, ok := bound.(EntitlementReader)
	if !ok {
		return nil, accorderr.ErrContractNotConfigured
	}
	return reader, nil
}

type ledgerState struct {
	Owner         principal.Principal   `json:"owner"`
	Identity      principal.Principal   `json:"identity"`
	RegistryAddr  directory.Address     `json:"registry_addr,omitempty"`
	NextPaymentID uint32                `json:"next_payment_id"`
	Payments      map[uint32]*Payment   `json:"payments"`
	Processors    []principal.Principal `json:"processors"`
}

// Snapshot serializes the ledger's storage for the durable substrate.
func (l *Ledger) Snapshot() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st := ledgerState{
		Owner:         l.owner,
		Identity:      l.identity,
		RegistryAddr:  l.registryAddr,
		NextPaymentID: l.nextPaymentID,
		Payments:      l.payments,
	}
	for p, ok := range l.processors {
		if ok {
			st.Processors = append(st.Processors, p)
		}
	}
	return json.Marshal(st)
}

// Restore replaces the ledger's storage from a snapshot.
func (l *Ledger) Restore(data []byte) error {
	var st ledgerState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.owner = st.Owner
	l.identity = st.Identity
	l.registryAddr = st.RegistryAddr
	l.nextPaymentID = st.NextPaymentID
	l.payments = st.Payments
	if l.payments == nil {
		l.payments = make(map[uint32]*Payment)
	}
	l.byTransaction = make(map[string]uint32, len(l.payments))
	for id, p := range l.payments {
		l.byTransaction[p.TransactionID] = id
	}
	l.processors = make(map[principal.Principal]bool, len(st.Processors))
	for _, p := range st.Processors {
		l.processors[p] = true
	}
	return nil
}
