package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/arkavo-labs/accord/pkg/attribute"
	"github.com/arkavo-labs/accord/pkg/config"
	"github.com/arkavo-labs/accord/pkg/directory"
	"github.com/arkavo-labs/accord/pkg/entitlement"
	"github.com/arkavo-labs/accord/pkg/events"
	"github.com/arkavo-labs/accord/pkg/host"
	"github.com/arkavo-labs/accord/pkg/payment"
	"github.com/arkavo-labs/accord/pkg/policy"
	"github.com/arkavo-labs/accord/pkg/principal"
	"github.com/arkavo-labs/accord/pkg/state"
)

// node is one fully wired deployment of the four components.
type node struct {
	cfg      *config.Config
	profile  *config.Profile
	owner    principal.Principal
	clock    *host.LogicalClock
	dir      *directory.Directory
	store    *state.SQLiteStore
	auditLog *events.Log

	registry *entitlement.Registry
	attrs    *attribute.Store
	engine   *policy.Engine
	ledger   *payment.Ledger

	registryAddr directory.Address
	attrAddr     directory.Address
	engineAddr   directory.Address
	ledgerAddr   directory.Address
}

// openNode builds a node from configuration, hydrating component state from
// the SQLite store when present.
func openNode(auditOut io.Writer) (*node, error) {
	cfg := config.Load()
	if cfg.ProfilePath == "" {
		return nil, fmt.Errorf("ACCORD_PROFILE is required")
	}
	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}

	store, err := state.OpenSQLite(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	n := &node{
		cfg:          cfg,
		profile:      profile,
		owner:        principal.Principal(profile.Owner),
		dir:          directory.New(),
		store:        store,
		auditLog:     events.NewLog(),
		registryAddr: directory.Address(profile.Addresses.EntitlementRegistry),
		attrAddr:     directory.Address(profile.Addresses.AttributeStore),
		engineAddr:   directory.Address(profile.Addresses.PolicyEngine),
		ledgerAddr:   directory.Address(profile.Addresses.PaymentLedger),
	}

	ctx := context.Background()
	addrs := []directory.Address{n.registryAddr, n.attrAddr, n.engineAddr, n.ledgerAddr}
	var latest uint64
	for _, addr := range addrs {
		if _, at, err := store.Load(ctx, addr); err == nil && at > latest {
			latest = at
		}
	}
	n.clock = host.NewLogicalClock(latest + 1)

	sinks := events.MultiSink{n.auditLog, events.NewWriterSink(auditOut)}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		sinks = append(sinks, events.NewStreamSink(client, cfg.AuditStream))
	}
	env := host.NewEnv(n.clock, sinks)

	n.registry = entitlement.NewRegistry(env, n.owner)
	n.attrs = attribute.NewStore(env, n.owner)
	n.engine, err = policy.NewEngine(env, n.owner, n.dir)
	if err != nil {
		return nil, err
	}
	n.ledger = payment.NewLedger(env, n.owner, n.dir)

	components := map[directory.Address]state.Snapshotter{
		n.registryAddr: n.registry,
		n.attrAddr:     n.attrs,
		n.engineAddr:   n.engine,
		n.ledgerAddr:   n.ledger,
	}
	for addr, c := range components {
		if err := state.Hydrate(ctx, store, addr, c); err != nil {
			return nil, fmt.Errorf("hydrate %s: %w", addr, err)
		}
	}

	n.dir.Bind(n.registryAddr, n.registry)
	n.dir.Bind(n.attrAddr, n.attrs)
	n.dir.Bind(n.engineAddr, n.engine)
	n.dir.Bind(n.ledgerAddr, n.ledger)

	if err := n.engine.SetAccessRegistry(n.owner, n.registryAddr); err != nil {
		return nil, err
	}
	if err := n.engine.SetAttributeStore(n.owner, n.attrAddr); err != nil {
		return nil, err
	}
	if err := n.ledger.SetAccessRegistry(n.owner, n.registryAddr); err != nil {
		return nil, err
	}
	for _, p := range profile.Processors {
		if err := n.ledger.AuthorizeProcessor(n.owner, principal.Principal(p)); err != nil {
			return nil, err
		}
	}

	slog.Info("node ready",
		"state", cfg.StatePath,
		"owner", profile.Owner,
		"block", n.clock.Now(),
	)
	return n, nil
}

// persist snapshots every component at the current block height.
func (n *node) persist(ctx context.Context) error {
	at := n.clock.Now()
	components := map[directory.Address]state.Snapshotter{
		n.registryAddr: n.registry,
		n.attrAddr:     n.attrs,
		n.engineAddr:   n.engine,
		n.ledgerAddr:   n.ledger,
	}
	for addr, c := range components {
		if err := state.Persist(ctx, n.store, addr, c, at); err != nil {
			return fmt.Errorf("persist %s: %w", addr, err)
		}
	}
	return nil
}

func (n *node) close() {
	if err := n.store.Close(); err != nil {
		slog.Warn("state store close failed", "error", err)
	}
}
