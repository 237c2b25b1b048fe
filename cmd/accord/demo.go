package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/arkavo-labs/accord/pkg/attribute"
	"github.com/arkavo-labs/accord/pkg/directory"
	"github.com/arkavo-labs/accord/pkg/entitlement"
	"github.com/arkavo-labs/accord/pkg/events"
	"github.com/arkavo-labs/accord/pkg/host"
	"github.com/arkavo-labs/accord/pkg/payment"
	"github.com/arkavo-labs/accord/pkg/policy"
	"github.com/arkavo-labs/accord/pkg/principal"
)

// runDemo walks the full access lifecycle in memory: deploy, pay, grant,
// attribute, evaluate, downgrade, re-evaluate, verify the audit chain.
func runDemo(stdout, stderr io.Writer) int {
	owner := principal.Principal("demo-owner")
	alice := principal.Principal("alice")

	clock := host.NewLogicalClock(1)
	auditLog := events.NewLog()
	env := host.NewEnv(clock, events.MultiSink{auditLog, events.NewWriterSink(stdout)})
	dir := directory.New()

	registry := entitlement.NewRegistry(env, owner)
	attrs := attribute.NewStore(env, owner)
	engine, err := policy.NewEngine(env, owner, dir)
	if err != nil {
		slog.Error("create engine", "error", err)
		return 1
	}
	ledger := payment.NewLedger(env, owner, dir)

	registryAddr := directory.NewAddress()
	attrAddr := directory.NewAddress()
	dir.Bind(registryAddr, registry)
	dir.Bind(attrAddr, attrs)

	must := func(err error) bool {
		if err != nil {
			slog.Error("demo step failed", "error", err)
			return false
		}
		return true
	}

	if !must(engine.SetAccessRegistry(owner, registryAddr)) ||
		!must(engine.SetAttributeStore(owner, attrAddr)) ||
		!must(ledger.SetAccessRegistry(owner, registryAddr)) {
		return 1
	}

	policyID, err := engine.Create(owner, policy.RuleSpec{
		ResourceID: "vault-42",
		RequiredAttributes: []policy.AttributePair{
			{Name: "opentdf.role", Value: "admin"},
		},
		MinEntitlement: entitlement.Premium,
	})
	if !must(err) {
		return 1
	}

	clock.Tick()
	paymentID, err := ledger.Record(owner, alice, "apple", "txn-demo-1", 9900, entitlement.Premium)
	if !must(err) {
		return 1
	}
	outcome, err := ledger.Complete(owner, paymentID)
	if !must(err) || !must(outcome.Err) {
		return 1
	}

	clock.Tick()
	if !must(attrs.Set(alice, alice, "opentdf", "role", "admin")) {
		return 1
	}

	decision, err := engine.Evaluate(owner, alice, policyID)
	if !must(err) {
		return 1
	}
	fmt.Fprintf(stdout, "decision 1: allow=%v hash=%s\n", decision.Allow, decision.DecisionHash)

	clock.Tick()
	if !must(registry.Grant(owner, alice, entitlement.Basic)) {
		return 1
	}
	decision, err = engine.Evaluate(owner, alice, policyID)
	if !must(err) {
		return 1
	}
	fmt.Fprintf(stdout, "decision 2: allow=%v reason=%q\n", decision.Allow, decision.Reason)

	ok, detail := auditLog.Verify()
	fmt.Fprintf(stdout, "audit chain: %s (%d events)\n", detail, auditLog.Len())
	if !ok {
		return 1
	}
	return 0
}
