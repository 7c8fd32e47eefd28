package ribose

import (
	"bytes"
	"testing"

	"github.com/ribose-run/ribose/internal/effect"
	"github.com/ribose-run/ribose/internal/nametable"
	"github.com/ribose-run/ribose/internal/transition"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fibTarget computes the Fibonacci number of each line's zero-run
// length, demonstrating a host effector that reaches back into its
// owning Transductor via Binder.
type fibTarget struct {
	t *Transductor
}

func (f *fibTarget) Bind(t *Transductor) { f.t = t }

func (f *fibTarget) Invoke(effector int32, param int32) (Return, error) {
	if effector != fibEffectorOrdinal {
		return None, nil
	}
	n := len(f.t.GetField(0))
	f.t.ClearField(0)
	out := make([]byte, fib(n))
	for i := range out {
		out[i] = '0'
	}
	out = append(out, '\n')
	return None, f.t.WriteOut(out)
}

// fib is the standard 1-indexed Fibonacci sequence (1, 1, 2, 3, 5, 8,
// 13, ...), used by fibTarget to compute each line's output.
func fib(n int) int {
	if n <= 0 {
		return 0
	}
	a, b := 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}

const fibEffectorOrdinal = int32(len(builtinNames)) // first effector past the built-ins

// newFibonacciModel hand-builds the single-state, three-class
// transducer used by S1: '0' pastes into the anonymous field, '\n'
// invokes the host fib effector, anything else is a domain error.
func newFibonacciModel(t *testing.T) *Model {
	t.Helper()

	signals, err := nametable.FromNames(reservedSignalNames)
	require.NoError(t, err)

	fields, err := nametable.FromNames([]string{"anonymous"})
	require.NoError(t, err)

	effectorNames, err := nametable.FromNames(append(append([]string{}, builtinNames...), "fib"))
	require.NoError(t, err)
	registry := effect.NewRegistry(effectorNames)

	transducers, err := nametable.FromNames([]string{"Fibonacci"})
	require.NoError(t, err)

	const (
		classZero  = 0
		classNL    = 1
		classOther = 2
	)
	eq := make([]int32, 256+len(reservedSignalNames))
	for i := range eq {
		eq[i] = classOther
	}
	eq['0'] = classZero
	eq['\n'] = classNL

	tr := &transition.Transducer{
		Name:      0,
		NumStates: 1,
		NumClass:  3,
		Eq:        eq,
		Kernel: []transition.Cell{
			{Next: 0, Effect: effPaste},
			{Next: 0, Effect: fibEffectorOrdinal},
			{Next: 0, Effect: 0},
		},
	}
	require.NoError(t, tr.Validate(registry.Count()))

	return &Model{
		targetClass: "ribose_test.fibTarget",
		signals:     signals,
		fields:      fields,
		effectors:   registry,
		transducers: transducers,
		tables:      []*transition.Transducer{tr},
		logger:      zap.NewNop(),
	}
}

func TestFibonacciScenario(t *testing.T) {
	model := newFibonacciModel(t)
	var out bytes.Buffer
	target := &fibTarget{}
	td := model.Transductor(target, WithSink(&out))

	status, err := td.Start("Fibonacci")
	require.NoError(t, err)
	require.Equal(t, PAUSED, status)

	status, err = td.Push([]byte("0000\n0000000\n"))
	require.NoError(t, err)
	require.Equal(t, RUNNABLE, status)

	status, err = td.Run()
	require.NoError(t, err)
	require.Equal(t, PAUSED, status)

	require.Equal(t, "000\n0000000000000\n", out.String())

	m := td.Metrics()
	require.EqualValues(t, 13, m.Bytes)
	require.Zero(t, m.Errors)
}

func TestDomainErrorRecovery(t *testing.T) {
	// S5: a transducer defines a transition on 'a' only; 'b' is a
	// domain error that injects exactly one nul, and a transition
	// defined from the state on nul consumes it without effect.
	signals, err := nametable.FromNames(reservedSignalNames)
	require.NoError(t, err)
	fields, err := nametable.FromNames([]string{"anonymous"})
	require.NoError(t, err)
	effectorNames, err := nametable.FromNames(append([]string{}, builtinNames...))
	require.NoError(t, err)
	registry := effect.NewRegistry(effectorNames)
	transducers, err := nametable.FromNames([]string{"AOnly"})
	require.NoError(t, err)

	const (
		classA     = 0
		classNul   = 1
		classOther = 2
	)
	eq := make([]int32, 256+len(reservedSignalNames))
	for i := range eq {
		eq[i] = classOther
	}
	eq['a'] = classA
	eq[256+0] = classNul // nul signal

	tr := &transition.Transducer{
		Name:      0,
		NumStates: 1,
		NumClass:  3,
		Eq:        eq,
		Kernel: []transition.Cell{
			{Next: 0, Effect: effPaste},
			{Next: 0, Effect: effNull},
			{Next: 0, Effect: 0},
		},
	}
	require.NoError(t, tr.Validate(registry.Count()))

	model := &Model{
		targetClass: "ribose_test.noopTarget",
		signals:     signals,
		fields:      fields,
		effectors:   registry,
		transducers: transducers,
		tables:      []*transition.Transducer{tr},
		logger:      zap.NewNop(),
	}

	td := model.Transductor(noopTarget{})
	_, err = td.Start("AOnly")
	require.NoError(t, err)
	_, err = td.Push([]byte("ab"))
	require.NoError(t, err)

	status, err := td.Run()
	require.NoError(t, err)
	require.Equal(t, PAUSED, status)
	require.EqualValues(t, 1, td.Metrics().Errors)
	require.Equal(t, "a", string(td.GetField(0)))
}

type noopTarget struct{}

func (noopTarget) Invoke(effector int32, param int32) (Return, error) { return None, nil }

// TestCounterStopsAfterThreeBytes builds counter[~c !stop 3]: every
// byte consumed decrements field "c"; reaching zero injects the "stop"
// signal, and the transition defined on that signal invokes the
// built-in stop effector, which pops the only frame and ends the run.
func TestCounterStopsAfterThreeBytes(t *testing.T) {
	signals, err := nametable.FromNames(append(append([]string{}, reservedSignalNames...), "stop"))
	require.NoError(t, err)
	const stopSignal = int32(4) // ordinal of "stop" within signals

	fields, err := nametable.FromNames([]string{"anonymous", "c"})
	require.NoError(t, err)
	const counterField = 1

	effectorNames, err := nametable.FromNames(append([]string{}, builtinNames...))
	require.NoError(t, err)
	registry := effect.NewRegistry(effectorNames)
	registry.SetParams(effCount, []any{
		[]Operand{
			{Kind: OperandField, Ordinal: counterField},
			{Kind: OperandSignal, Ordinal: stopSignal},
		},
	})

	transducers, err := nametable.FromNames([]string{"Counter"})
	require.NoError(t, err)

	const (
		classData  = 0
		classStop  = 1
		classOther = 2
	)
	eq := make([]int32, 256+signals.Len())
	for i := range eq {
		eq[i] = classOther
	}
	for i := 0; i < 256; i++ {
		eq[i] = classData
	}
	eq[256+stopSignal] = classStop

	tr := &transition.Transducer{
		Name:      0,
		NumStates: 1,
		NumClass:  3,
		Eq:        eq,
		Kernel: []transition.Cell{
			{Next: 0, Effect: -1}, // classData: vector at pool offset 1
			{Next: 0, Effect: effStop},
			{Next: 0, Effect: 0},
		},
		Vectors: []int32{0, -effCount, 0, 0},
	}
	require.NoError(t, tr.Validate(registry.Count()))

	model := &Model{
		targetClass: "ribose_test.noopTarget",
		signals:     signals,
		fields:      fields,
		effectors:   registry,
		transducers: transducers,
		tables:      []*transition.Transducer{tr},
		logger:      zap.NewNop(),
	}

	td := model.Transductor(noopTarget{})
	_, err = td.Start("Counter")
	require.NoError(t, err)

	td.fields.Select(counterField)
	td.fields.PasteBytes([]byte("3"))
	td.fields.Select(0)

	_, err = td.Push([]byte("xyz"))
	require.NoError(t, err)

	status, err := td.Run()
	require.NoError(t, err)
	require.Equal(t, STOPPED, status)
	require.EqualValues(t, 3, td.Metrics().Bytes)
}
