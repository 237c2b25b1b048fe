package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/arkavo-labs/accord/pkg/config"
	"github.com/arkavo-labs/accord/pkg/entitlement"
	"github.com/arkavo-labs/accord/pkg/policyfile"
	"github.com/arkavo-labs/accord/pkg/principal"
)

func runSeed(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dirFlag := fs.String("dir", "", "policy document directory (default ACCORD_POLICY_DIR)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	n, err := openNode(stderr)
	if err != nil {
		slog.Error("open node", "error", err)
		return 1
	}
	defer n.close()

	dir := *dirFlag
	if dir == "" {
		dir = config.Load().PolicyDir
	}
	if dir == "" {
		fmt.Fprintln(stderr, "seed: -dir or ACCORD_POLICY_DIR is required")
		return 2
	}

	loader, err := policyfile.NewLoader()
	if err != nil {
		slog.Error("policy loader", "error", err)
		return 1
	}
	docs, err := loader.LoadDir(dir)
	if err != nil {
		slog.Error("load policies", "error", err)
		return 1
	}
	ids, err := policyfile.Apply(n.engine, n.owner, docs)
	if err != nil {
		slog.Error("apply policies", "error", err)
		return 1
	}
	n.clock.Tick()
	if err := n.persist(context.Background()); err != nil {
		slog.Error("persist", "error", err)
		return 1
	}
	fmt.Fprintf(stdout, "seeded %d policies: %v\n", len(ids), ids)
	return 0
}

func runEvaluate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	who := fs.String("principal", "", "principal to evaluate")
	policyID := fs.Uint("policy", 0, "policy id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *who == "" {
		fmt.Fprintln(stderr, "evaluate: -principal is required")
		return 2
	}

	n, err := openNode(stderr)
	if err != nil {
		slog.Error("open node", "error", err)
		return 1
	}
	defer n.close()

	decision, err := n.engine.Evaluate(n.owner, principal.Principal(*who), uint32(*policyID))
	if err != nil {
		slog.Error("evaluate", "policy", *policyID, "error", err)
		return 1
	}
	out, _ := json.MarshalIndent(decision, "", "  ")
	fmt.Fprintln(stdout, string(out))
	if decision.Allow {
		return 0
	}
	return 3
}

func runPayment(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "payment: record | complete | fail | refund")
		return 2
	}
	verb, rest := args[0], args[1:]

	fs := flag.NewFlagSet("payment "+verb, flag.ContinueOnError)
	fs.SetOutput(stderr)
	account := fs.String("account", "", "paying account principal")
	provider := fs.String("provider", "", "payment provider")
	txn := fs.String("txn", "", "external transaction id")
	amount := fs.Uint64("amount", 0, "amount in minor units")
	level := fs.Uint("level", 0, "entitlement level to grant (0-3)")
	paymentID := fs.Uint("id", 0, "payment id")
	reason := fs.String("reason", "", "failure reason")
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	n, err := openNode(stderr)
	if err != nil {
		slog.Error("open node", "error", err)
		return 1
	}
	defer n.close()
	n.clock.Tick()

	switch verb {
	case "record":
		id, err := n.ledger.Record(n.owner, principal.Principal(*account), *provider, *txn, *amount, entitlement.Level(*level))
		if err != nil {
			slog.Error("record payment", "txn", *txn, "error", err)
			return 1
		}
		fmt.Fprintf(stdout, "payment %d recorded\n", id)
	case "complete":
		outcome, err := n.ledger.Complete(n.owner, uint32(*paymentID))
		if err != nil {
			slog.Error("complete payment", "id", *paymentID, "error", err)
			return 1
		}
		if outcome.Err != nil {
			slog.Warn("entitlement grant did not land; reconcile required",
				"id", *paymentID, "error", outcome.Err)
		}
		fmt.Fprintf(stdout, "payment %d completed\n", *paymentID)
	case "fail":
		if err := n.ledger.Fail(n.owner, uint32(*paymentID), *reason); err != nil {
			slog.Error("fail payment", "id", *paymentID, "error", err)
			return 1
		}
		fmt.Fprintf(stdout, "payment %d failed\n", *paymentID)
	case "refund":
		outcome, err := n.ledger.Refund(n.owner, uint32(*paymentID))
		if err != nil {
			slog.Error("refund payment", "id", *paymentID, "error", err)
			return 1
		}
		if outcome.Err != nil {
			slog.Warn("entitlement revoke did not land; reconcile required",
				"id", *paymentID, "error", outcome.Err)
		}
		fmt.Fprintf(stdout, "payment %d refunded\n", *paymentID)
	default:
		fmt.Fprintf(stderr, "payment: unknown verb %q\n", verb)
		return 2
	}

	if err := n.persist(context.Background()); err != nil {
		slog.Error("persist", "error", err)
		return 1
	}
	return 0
}

func runGrant(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "grant: set | revoke")
		return 2
	}
	verb, rest := args[0], args[1:]

	fs := flag.NewFlagSet("grant "+verb, flag.ContinueOnError)
	fs.SetOutput(stderr)
	account := fs.String("account", "", "account principal")
	level := fs.String("level", "none", "entitlement level (none|basic|premium|vip)")
	if err := fs.Parse(rest); err != nil {
		return 2
	}
	if *account == "" {
		fmt.Fprintln(stderr, "grant: -account is required")
		return 2
	}

	n, err := openNode(stderr)
	if err != nil {
		slog.Error("open node", "error", err)
		return 1
	}
	defer n.close()
	n.clock.Tick()

	switch verb {
	case "set":
		lvl, err := entitlement.ParseLevel(*level)
		if err != nil {
			fmt.Fprintf(stderr, "grant: %v\n", err)
			return 2
		}
		if err := n.registry.Grant(n.owner, principal.Principal(*account), lvl); err != nil {
			slog.Error("grant entitlement", "account", *account, "error", err)
			return 1
		}
		fmt.Fprintf(stdout, "%s granted %s\n", *account, lvl)
	case "revoke":
		if err := n.registry.Revoke(n.owner, principal.Principal(*account)); err != nil {
			slog.Error("revoke entitlement", "account", *account, "error", err)
			return 1
		}
		fmt.Fprintf(stdout, "%s revoked\n", *account)
	default:
		fmt.Fprintf(stderr, "grant: unknown verb %q\n", verb)
		return 2
	}

	if err := n.persist(context.Background()); err != nil {
		slog.Error("persist", "error", err)
		return 1
	}
	return 0
}

func runAttr(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "attr: set | remove")
		return 2
	}
	verb, rest := args[0], args[1:]

	fs := flag.NewFlagSet("attr "+verb, flag.ContinueOnError)
	fs.SetOutput(stderr)
	account := fs.String("account", "", "account principal")
	namespace := fs.String("ns", "", "attribute namespace")
	key := fs.String("key", "", "attribute key")
	value := fs.String("value", "", "attribute value")
	if err := fs.Parse(rest); err != nil {
		return 2
	}
	if *account == "" || *key == "" {
		fmt.Fprintln(stderr, "attr: -account and -key are required")
		return 2
	}

	n, err := openNode(stderr)
	if err != nil {
		slog.Error("open node", "error", err)
		return 1
	}
	defer n.close()
	n.clock.Tick()

	// The harness writes with the owner's operational override.
	switch verb {
	case "set":
		if err := n.attrs.Set(n.owner, principal.Principal(*account), *namespace, *key, *value); err != nil {
			slog.Error("set attribute", "account", *account, "error", err)
			return 1
		}
		fmt.Fprintf(stdout, "%s.%s set for %s\n", *namespace, *key, *account)
	case "remove":
		if err := n.attrs.Remove(n.owner, principal.Principal(*account), *namespace, *key); err != nil {
			slog.Error("remove attribute", "account", *account, "error", err)
			return 1
		}
		fmt.Fprintf(stdout, "%s.%s removed for %s\n", *namespace, *key, *account)
	default:
		fmt.Fprintf(stderr, "attr: unknown verb %q\n", verb)
		return 2
	}

	if err := n.persist(context.Background()); err != nil {
		slog.Error("persist", "error", err)
		return 1
	}
	return 0
}

func runReconcile(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	paymentID := fs.Uint("id", 0, "payment id")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	n, err := openNode(stderr)
	if err != nil {
		slog.Error("open node", "error", err)
		return 1
	}
	defer n.close()

	rec, err := n.ledger.Reconcile(uint32(*paymentID))
	if err != nil {
		slog.Error("reconcile", "id", *paymentID, "error", err)
		return 1
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Fprintln(stdout, string(out))
	if rec.Drift {
		return 3
	}
	return 0
}
