// Package effect implements the transductor's effector registry: named
// operations with optional parameter indirection, plus the Return
// bitset effectors report back to the transductor core.
//
// Parameter compilation is a one-time precomputation: raw [][]byte
// argument lists are turned into opaque parameter objects once, at
// model-load time, and the hot path only ever sees a dense parameter
// index.
package effect

import (
	"fmt"

	"github.com/ribose-run/ribose/internal/nametable"
)

// Return is the bitset an effector invocation reports back to the
// transductor core.
type Return uint32

const (
	None    Return = 0
	Start   Return = 1 << 0
	Stop    Return = 1 << 1
	Input   Return = 1 << 2
	Pause   Return = 1 << 3
	Stopped Return = 1 << 4
	signal  Return = 1 << 5

	signalShift = 16
)

// WithSignal returns r with the SIGNAL flag set and sym packed at bits
// [16:32]; SignalSymbol recovers it with r >> 16.
func WithSignal(r Return, sym int32) Return {
	return r | signal | Return(uint32(sym)<<signalShift)
}

// HasSignal reports whether r requests a signal injection.
func HasSignal(r Return) bool { return r&signal != 0 }

// SignalSymbol extracts the packed signal symbol. Only meaningful when
// HasSignal(r).
func SignalSymbol(r Return) int32 { return int32(uint32(r) >> signalShift) }

// structural masks off the signal bits, leaving only the bits the
// transductor core's dispatch inspects structurally.
func (r Return) structural() Return { return r &^ (signal | 0xFFFF0000) }

// Target is implemented by the host (or by the transductor itself, for
// the built-in effectors) to execute effector invocations. effector and
// param are indices resolved by the Registry; param is -1 for a
// zero-arity invocation.
type Target interface {
	Invoke(effector int32, param int32) (Return, error)
}

// Reserved effector indices.
const (
	// DomainErrorEffector is never actually invoked: effect code 0 is
	// handled by the transductor core as a domain error before
	// dispatch reaches the registry.
	DomainErrorEffector int32 = 0
	// NullEffector is a no-op, used on the mark-synchronization path.
	NullEffector int32 = 1
)

// Registry interns effector names and holds each parameterized
// effector's compiled parameter table, indexed densely from 0.
type Registry struct {
	names  *nametable.Table
	params [][]any // params[effector] = compiled parameter objects
}

// NewRegistry returns a Registry backed by names. The caller is expected
// to have interned at least the reserved domain-error and null
// effector names ("0" and "1") at ordinals 0 and 1.
func NewRegistry(names *nametable.Table) *Registry {
	return &Registry{names: names, params: make([][]any, names.Len())}
}

// Lookup resolves an effector name to its index.
func (r *Registry) Lookup(name string) (int32, bool) {
	ord, ok := r.names.Lookup(name)
	return int32(ord), ok
}

// Name returns the name of effector index e.
func (r *Registry) Name(e int32) string {
	return r.names.Name(int(e))
}

// Count returns the number of distinct effectors registered.
func (r *Registry) Count() int32 {
	return int32(r.names.Len())
}

// SetParams installs the compiled parameter table for effector e.
func (r *Registry) SetParams(e int32, params []any) {
	for int(e) >= len(r.params) {
		r.params = append(r.params, nil)
	}
	r.params[e] = params
}

// Param returns the idx'th compiled parameter object for effector e.
func (r *Registry) Param(e int32, idx int32) (any, error) {
	if int(e) >= len(r.params) || idx < 0 || int(idx) >= len(r.params[e]) {
		return nil, fmt.Errorf("effect: effector %d has no parameter at index %d", e, idx)
	}
	return r.params[e][idx], nil
}

// VectorMember is one decoded entry of an effect vector, ready to
// dispatch: Param is -1 for a simple (unparameterized) member.
type VectorMember struct {
	Effector int32
	Param    int32
}

// Aggregate ORs together the structural bits of a vector's member
// returns and tracks the single signal a vector is allowed to inject
// (a vector whose members would
// inject more than one distinct signal"). The FST compiler is expected
// to have already guaranteed this statically; Aggregate is the runtime
// backstop.
type Aggregate struct {
	r         Return
	sawSignal bool
	signalSym int32
}

// Add folds one member's return into the aggregate.
func (a *Aggregate) Add(r Return) error {
	a.r |= r.structural()
	if HasSignal(r) {
		sym := SignalSymbol(r)
		if a.sawSignal && a.signalSym != sym {
			return fmt.Errorf("effect: vector injects more than one distinct signal (%d and %d)", a.signalSym, sym)
		}
		a.sawSignal = true
		a.signalSym = sym
	}
	return nil
}

// Return produces the vector's effective, OR-combined return.
func (a *Aggregate) Return() Return {
	r := a.r
	if a.sawSignal {
		r = WithSignal(r, a.signalSym)
	}
	return r
}
