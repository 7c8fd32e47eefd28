package ribose

import "io"

// Target is implemented by the host object a Transductor is bound to.
// Effector ordinals at or beyond the built-in count are dispatched to
// Invoke; the built-ins themselves are handled by the transductor core.
type Target interface {
	// Invoke executes a host-defined effector. param is -1 for a
	// zero-arity invocation.
	Invoke(effector int32, param int32) (Return, error)
}

// Sink receives the `out` built-in effector's output. A Target may
// additionally implement Sink to redirect output away from os.Stdout;
// see WithSink.
type Sink interface {
	io.Writer
}

// Binder is implemented by a Target that needs to reach back into its
// owning Transductor (to read/write fields, inject signals, or write to
// the sink) from within Invoke. If a Target implements Binder,
// Model.Transductor calls Bind once, before the Transductor is
// returned: the target borrows its owning transductor non-cyclically,
// by reference, rather than the transductor reflecting into the
// target's class.
type Binder interface {
	Bind(t *Transductor)
}

// Status is the transductor's run state.
type Status int

const (
	// NULL is the zero Status, never observed after Transductor
	// construction (a fresh transductor starts STOPPED).
	NULL Status = iota
	// STOPPED holds exactly when the transducer stack is empty.
	STOPPED
	// PAUSED holds when the transducer stack is non-empty and the
	// input stack is empty.
	PAUSED
	// RUNNABLE holds when both stacks are non-empty.
	RUNNABLE
)

func (s Status) String() string {
	switch s {
	case STOPPED:
		return "STOPPED"
	case PAUSED:
		return "PAUSED"
	case RUNNABLE:
		return "RUNNABLE"
	default:
		return "NULL"
	}
}

// Metrics is the per-run counter record returned by Transductor.Metrics.
type Metrics struct {
	Bytes   int64 // bytes consumed from the input stack
	Errors  int64 // domain-error (nul injection) count
	Sum     int64 // accumulator, bumped by host effectors via Transductor.AddSum
	Product int64 // accumulator, bumped by host effectors via Transductor.AddProduct
	Scan    int64 // inner-loop iteration count
}
