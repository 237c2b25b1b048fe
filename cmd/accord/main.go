// Command accord is the operator harness for the decision core: it wires
// the four components through a directory, persists their state in SQLite,
// and drives policy seeding, evaluations, and payment lifecycles from the
// command line.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run dispatches subcommands; split out for tests.
func Run(args []string, stdout, stderr io.Writer) int {
	setupLogging(stderr)

	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "demo":
		return runDemo(stdout, stderr)
	case "seed":
		return runSeed(args[2:], stdout, stderr)
	case "evaluate":
		return runEvaluate(args[2:], stdout, stderr)
	case "payment":
		return runPayment(args[2:], stdout, stderr)
	case "grant":
		return runGrant(args[2:], stdout, stderr)
	case "attr":
		return runAttr(args[2:], stdout, stderr)
	case "reconcile":
		return runReconcile(args[2:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[1])
		usage(stderr)
		return 2
	}
}

func setupLogging(stderr io.Writer) {
	level := slog.LevelInfo
	switch strings.ToUpper(os.Getenv("ACCORD_LOG_LEVEL")) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: accord <command> [flags]

commands:
  demo        run the end-to-end access scenario in memory
  seed        load policy documents into the policy engine
  evaluate    evaluate a principal against a policy
  payment     record | complete | fail | refund a payment
  grant       set | revoke an account's entitlement level
  attr        set | remove an account attribute
  reconcile   compare a payment's status with the registry

environment:
  ACCORD_STATE_PATH   SQLite state database (default accord.db)
  ACCORD_PROFILE      deployment profile YAML
  ACCORD_POLICY_DIR   seed policy directory
  ACCORD_REDIS_ADDR   optional audit stream target
  ACCORD_LOG_LEVEL    DEBUG | INFO | WARN | ERROR
`)
}
