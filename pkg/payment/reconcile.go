package payment

import (
	"github.com/arkavo-labs/accord/pkg/accorderr"
	"github.com/arkavo-labs/accord/pkg/entitlement"
	"github.com/arkavo-labs/accord/pkg/principal"
)

// Reconciliation compares a payment's committed status against the
// entitlement the registry actually holds for the account. An external
// supervisor polls this to detect and repair drift left by a registry call
// that failed after the local status commit.
type Reconciliation struct {
	PaymentID uint32              `json:"payment_id"`
	Account   principal.Principal `json:"account"`
	Status    Status              `json:"status"`
	// Expected is the level the payment's status implies: the granted level
	// for Completed, None for Refunded. Meaningless unless HasExpectation.
	Expected       entitlement.Level `json:"expected"`
	Actual         entitlement.Level `json:"actual"`
	HasExpectation bool              `json:"has_expectation"`
	Drift          bool              `json:"drift"`
}

// Reconcile reports the registry drift for one payment. Pending and Failed
// payments imply no entitlement expectation and never drift. The check is
// exact: both paths into the registry are last-write-wins, so an apparent
// drift may be another writer's legitimate update; the supervisor decides.
func (l *Ledger) Reconcile(paymentID uint32) (Reconciliation, error) {
	p, ok := l.GetPayment(paymentID)
	if !ok {
		return Reconciliation{}, accorderr.ErrPaymentNotFound
	}

	reader, err := l.registryReader()
	if err != nil {
		return Reconciliation{}, err
	}
	actual := reader.Get(p.Account)

	rec := Reconciliation{
		PaymentID: paymentID,
		Account:   p.Account,
		Status:    p.Status,
		Actual:    actual,
	}
	switch p.Status {
	case StatusCompleted:
		rec.Expected = p.EntitlementGranted
		rec.HasExpectation = true
	case StatusRefunded:
		rec.Expected = entitlement.None
		rec.HasExpectation = true
	}
	rec.Drift = rec.HasExpectation && rec.Actual != rec.Expected
	return rec, nil
}
