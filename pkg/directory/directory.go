// Package directory resolves opaque component addresses to live components.
//
// Components never hold references to each other's storage; they store a
// collaborator's Address as owner-set configuration and resolve it through
// the directory at call time. This models independently deployed trust
// domains: rebinding an address swaps the collaborator without touching the
// caller's state.
package directory

import (
	"sync"

	"github.com/google/uuid"
)

// Address is an opaque component address.
type Address string

// None is the unset address.
const None Address = ""

// NewAddress mints a fresh component address.
func NewAddress() Address {
	return Address(uuid.New().String())
}

// Directory is a thread-safe address → component binding table.
type Directory struct {
	mu       sync.RWMutex
	bindings map[Address]any
}

// New creates an empty directory.
func New() *Directory {
	return &Directory{bindings: make(map[Address]any)}
}

// Bind registers or rebinds a component under the address. No history is
// retained.
func (d *Directory) Bind(addr Address, component any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings[addr] = component
}

// Lookup resolves an address to its bound component.
func (d *Directory) Lookup(addr Address) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.bindings[addr]
	return c, ok
}
