// Package state is the durable storage substrate consumed by the
// decision-core components.
//
// Each component owns and exclusively mutates its own storage; the
// substrate persists one opaque payload per component address with atomic
// per-call semantics. The payload format is the component's business.
package state

import (
	"context"
	"errors"

	"github.com/arkavo-labs/accord/pkg/directory"
)

// ErrNotFound is returned by Load for an address with no saved state.
var ErrNotFound = errors.New("component state not found")

// Snapshotter is implemented by every component: serialize storage out,
// replace storage from a prior serialization.
type Snapshotter interface {
	Snapshot() ([]byte, error)
	Restore(data []byte) error
}

// Store persists component state by address. Each call is atomic.
type Store interface {
	// Save writes the payload for the address, overwriting any prior state.
	// The logical timestamp records when the snapshot was taken.
	Save(ctx context.Context, addr directory.Address, payload []byte, at uint64) error

	// Load returns the payload and logical timestamp for the address, or
	// ErrNotFound.
	Load(ctx context.Context, addr directory.Address) ([]byte, uint64, error)

	// Addresses lists every address with saved state.
	Addresses(ctx context.Context) ([]directory.Address, error)
}

// Persist snapshots the component and saves it under the address.
func Persist(ctx context.Context, s Store, addr directory.Address, c Snapshotter, at uint64) error {
	payload, err := c.Snapshot()
	if err != nil {
		return err
	}
	return s.Save(ctx, addr, payload, at)
}

// Hydrate loads the address's saved state into the component. A missing
// snapshot is not an error; the component keeps its fresh state.
func Hydrate(ctx context.Context, s Store, addr directory.Address, c Snapshotter) error {
	payload, _, err := s.Load(ctx, addr)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.Restore(payload)
}
