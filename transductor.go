package ribose

import (
	"fmt"
	"os"

	"github.com/ribose-run/ribose/internal/effect"
	"github.com/ribose-run/ribose/internal/fields"
	"github.com/ribose-run/ribose/internal/instack"
	"github.com/ribose-run/ribose/internal/transition"
	"go.uber.org/zap"
)

// frame is one transducer-stack entry: the transducer ordinal and its
// current state.
type frame struct {
	transducer int
	state      int32
}

// domainMark identifies the (transducer, state) pair a nul injection
// fired from, used to detect the "two consecutive nul injections
// without intervening progress" failure.
type domainMark struct {
	transducer int
	state      int32
	armed      bool
}

// Transductor is bound to a target instance for its lifetime and drives
// one model's transducers against that target.
type Transductor struct {
	model  *Model
	target Target
	logger *zap.Logger
	sink   Sink

	in     instack.Stack
	fields *fields.Store
	frames []frame

	status  Status
	metrics Metrics

	lastSym  instack.Symbol
	domain   domainMark
}

func newTransductor(m *Model, target Target, opts ...TransductorOption) *Transductor {
	cfg := transductorConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	sink := cfg.sink
	if sink == nil {
		if s, ok := target.(Sink); ok {
			sink = s
		} else {
			sink = os.Stdout
		}
	}
	td := &Transductor{
		model:  m,
		target: target,
		logger: cfg.logger,
		sink:   sink,
		fields: fields.New(m.fields.Len()),
		status: STOPPED,
	}
	if b, ok := target.(Binder); ok {
		b.Bind(td)
	}
	return td
}

// Status returns the transductor's current run state.
func (t *Transductor) Status() Status { return t.status }

// Metrics returns the current per-run counters.
func (t *Transductor) Metrics() Metrics { return t.metrics }

// GetField returns field ord's current contents.
func (t *Transductor) GetField(ord int) []byte { return t.fields.Read(ord) }

// ClearField empties field ord, for a host effector's own bookkeeping.
func (t *Transductor) ClearField(ord int) { t.fields.Clear(ord) }

// WriteOut writes p to the bound sink, for a host effector that
// produces output outside the built-in `out` effector's operand form.
func (t *Transductor) WriteOut(p []byte) error {
	_, err := t.sink.Write(p)
	return err
}

// AddSum adds delta to the sum accumulator, for host effectors that
// want it reflected in Metrics.
func (t *Transductor) AddSum(delta int64) { t.metrics.Sum += delta }

// AddProduct multiplies the product accumulator by factor.
func (t *Transductor) AddProduct(factor int64) {
	if t.metrics.Product == 0 {
		t.metrics.Product = 1
	}
	t.metrics.Product *= factor
}

// Start pushes the named transducer at its initial state (state 0).
func (t *Transductor) Start(name string) (Status, error) {
	ord, ok := t.model.transducers.Lookup(name)
	if !ok {
		return t.status, &ModelError{Reason: fmt.Sprintf("no such transducer %q", name)}
	}
	t.frames = append(t.frames, frame{transducer: ord, state: 0})
	t.status = t.computeStatus()
	t.logger.Debug("transducer started", zap.String("name", name), zap.Stringer("status", t.status))
	return t.status, nil
}

// Push pushes bytes onto the input stack.
func (t *Transductor) Push(data []byte) (Status, error) {
	if err := t.in.Push(data); err != nil {
		return t.status, &InputError{Cause: err}
	}
	t.status = t.computeStatus()
	return t.status, nil
}

// Signal pushes a signal symbol onto the input stack. sym is a signal
// ordinal in signal space (instack.SignalBase + k).
func (t *Transductor) Signal(sym instack.Symbol) (Status, error) {
	if err := t.in.Signal(sym); err != nil {
		return t.status, &InputError{Cause: err}
	}
	t.status = t.computeStatus()
	return t.status, nil
}

// Stop clears both stacks, returns the field selection to anonymous,
// and returns STOPPED. Field contents survive a stop: a run's
// extracted data is read back with GetField after Run returns.
func (t *Transductor) Stop() Status {
	t.in.Stop()
	t.fields.Reset()
	t.frames = t.frames[:0]
	t.domain = domainMark{}
	t.status = STOPPED
	return t.status
}

func (t *Transductor) computeStatus() Status {
	switch {
	case len(t.frames) == 0:
		return STOPPED
	case t.in.Empty():
		return PAUSED
	default:
		return RUNNABLE
	}
}

func (t *Transductor) top() *frame { return &t.frames[len(t.frames)-1] }

// Run executes the inner loop until the transductor pauses, stops, or
// fails. Precondition: Status() == RUNNABLE.
func (t *Transductor) Run() (Status, error) {
	if t.status != RUNNABLE {
		return t.status, fmt.Errorf("ribose: Run called while status is %s, not RUNNABLE", t.status)
	}

	for {
		fr := t.top()
		tr := t.model.tables[fr.transducer]

		sym, err := t.in.Next()
		if err != nil {
			return t.status, &InputError{Cause: err}
		}
		t.lastSym = sym
		t.metrics.Scan++
		if instack.IsByte(sym) {
			t.metrics.Bytes++
		}

		class := tr.Class(int32(sym))
		cell := tr.Transition(class, fr.state)

		if sym == instack.Eos && cell.IsDomainError() {
			if len(t.frames) > 1 {
				t.frames = t.frames[:len(t.frames)-1]
				t.domain = domainMark{}
				t.status = t.computeStatus()
				continue
			}
			t.status = PAUSED
			return t.status, nil
		}

		if cell.IsDomainError() {
			t.metrics.Errors++
			mark := domainMark{transducer: fr.transducer, state: fr.state, armed: true}
			if t.domain == mark {
				t.Stop()
				return STOPPED, &DomainError{Transducer: t.model.transducers.Name(fr.transducer), State: fr.state}
			}
			t.domain = mark
			if _, serr := t.Signal(instack.Nul); serr != nil {
				return t.status, serr
			}
			t.status = t.computeStatus()
			continue
		}
		t.domain = domainMark{}

		// The table-determined next state is applied before the
		// effect runs: start/shift/stop may push, replace, or pop
		// frames, and those structural changes must take priority
		// over this frame's own transition (shift in particular
		// replaces the frame outright, to state 0).
		fr.state = cell.Next

		ret, err := t.execute(cell, tr)
		if err != nil {
			return t.status, err
		}

		if effect.HasSignal(ret) {
			if _, serr := t.Signal(instack.SignalBase + instack.Symbol(effect.SignalSymbol(ret))); serr != nil {
				return t.status, serr
			}
		}

		if ret&effect.Stopped != 0 {
			return t.Stop(), nil
		}

		t.status = t.computeStatus()

		if ret&effect.Pause != 0 {
			return t.status, nil
		}
		if t.status != RUNNABLE {
			return t.status, nil
		}
	}
}

// execute dispatches a single transition cell's effect, simple or
// vector, accumulating the returns of every member fired.
func (t *Transductor) execute(cell transition.Cell, tr *transition.Transducer) (effect.Return, error) {
	if cell.IsSimple() {
		return t.invoke(cell.Effect, -1)
	}

	var agg effect.Aggregate
	it := tr.Vector(-cell.Effect)
	for {
		e, p, ok := it.Next()
		if !ok {
			break
		}
		ret, err := t.invoke(e, p)
		if err != nil {
			return 0, err
		}
		if err := agg.Add(ret); err != nil {
			return 0, &EffectorError{Effector: t.model.effectors.Name(e), Cause: err}
		}
	}
	return agg.Return(), nil
}

// invoke dispatches one effector call: built-ins are handled in-core,
// anything else is routed to the bound target.
func (t *Transductor) invoke(e int32, p int32) (effect.Return, error) {
	if int(e) < len(builtinNames) {
		return t.invokeBuiltin(e, p)
	}
	ret, err := t.target.Invoke(e, p)
	if err != nil {
		return 0, &EffectorError{Effector: t.model.effectors.Name(e), Cause: err}
	}
	return ret, nil
}

// params resolves the compiled []Operand stored at registry slot
// (e, p), or nil if p is -1 (an unparameterized invocation).
func (t *Transductor) params(e int32, p int32) ([]Operand, error) {
	if p < 0 {
		return nil, nil
	}
	raw, err := t.model.effectors.Param(e, p)
	if err != nil {
		return nil, err
	}
	operands, _ := raw.([]Operand)
	return operands, nil
}

// resolveBytes concatenates a parameter's operands into a single byte
// slice, reading field contents and re-encoding signal references as
// instack escapes so they survive a subsequent Push.
func (t *Transductor) resolveBytes(operands []Operand) []byte {
	var out []byte
	for _, op := range operands {
		switch op.Kind {
		case OperandLiteral:
			out = append(out, op.Literal...)
		case OperandField:
			out = append(out, t.fields.Read(int(op.Ordinal))...)
		case OperandSignal:
			k := op.Ordinal
			out = append(out, 0xFF, '!', byte(k>>8), byte(k))
		}
	}
	return out
}
