// Package principal defines the opaque caller identity shared by all
// decision-core components.
//
// A Principal is comparable and otherwise uninterpreted: the core performs
// no trimming, case-folding, or validation on it. On a chain host it would
// be an account address; in tests it is whatever string the test chooses.
package principal

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Principal identifies a caller or account across all components.
type Principal string

// Zero is the absent principal.
const Zero Principal = ""

// New returns a fresh random principal. Used by hosts that mint component
// identities and by tests.
func New() Principal {
	return Principal(uuid.New().String())
}

// IsZero reports whether p is the absent principal.
func (p Principal) IsZero() bool {
	return p == Zero
}

func (p Principal) String() string {
	return string(p)
}

type contextKey string

const callerKey contextKey = "accord.caller"

// ErrNoCaller is returned by CallerFrom when the context carries no caller.
var ErrNoCaller = errors.New("no caller principal in context")

// WithCaller attaches the calling principal to the context.
func WithCaller(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, callerKey, p)
}

// CallerFrom retrieves the calling principal from the context.
func CallerFrom(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(callerKey).(Principal)
	if !ok || p.IsZero() {
		return Zero, ErrNoCaller
	}
	return p, nil
}
