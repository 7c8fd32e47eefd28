// Command ribosedemo builds an in-memory Fibonacci model, saves and
// reloads it through the real model-file format, and runs it against a
// fixed input to demonstrate the public Load/Transductor API end to
// end (SPEC_FULL.md §6 / scenario S1).
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ribose-run/ribose"
	"github.com/ribose-run/ribose/internal/modelfile"
	"github.com/ribose-run/ribose/internal/transition"
)

func main() {
	model, err := buildFibonacciModel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ribosedemo:", err)
		os.Exit(1)
	}

	out, err := runFibonacci(model, "0000\n0000000\n")
	if err != nil {
		fmt.Fprintln(os.Stderr, "ribosedemo:", err)
		os.Exit(1)
	}
	fmt.Print(out)
}

// buildFibonacciModel hand-assembles the raw model bytes for a
// single-state transducer that pastes every '0' byte into the
// anonymous field and, on '\n', invokes the host's "fib" effector —
// then round-trips it through modelfile.Save/ribose.Load exactly as a
// compiled-on-disk model would be loaded.
func buildFibonacciModel() (*ribose.Model, error) {
	raw := &modelfile.RawModel{
		TargetClass: "ribosedemo.fibTarget",
		Signals:     []string{"nul", "nil", "eol", "eos"},
		Fields:      []string{"anonymous"},
		Effectors: append([]string{
			"0", "1", "select", "paste", "copy", "cut", "clear", "count",
			"signal", "in", "out", "mark", "reset", "start", "shift", "stop", "pause",
		}, "fib"),
		Transducers: []modelfile.RawTransducer{
			{
				Name:      "Fibonacci",
				NumStates: 1,
				NumClass:  3,
				Eq:        fibonacciEq(),
				Kernel: []transition.Cell{
					{Next: 0, Effect: 3},  // class 0 ('0')  -> paste
					{Next: 0, Effect: 17}, // class 1 ('\n') -> fib
					{Next: 0, Effect: 0},  // class 2 (else) -> domain error
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := modelfile.Save(&buf, raw); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return ribose.Load(&buf)
}

func fibonacciEq() []uint16 {
	eq := make([]uint16, 256+4)
	for i := range eq {
		eq[i] = 2
	}
	eq['0'] = 0
	eq['\n'] = 1
	return eq
}

// runFibonacci binds a fibTarget to model and runs it to completion
// against input, returning everything the fib effector wrote.
func runFibonacci(model *ribose.Model, input string) (string, error) {
	var out bytes.Buffer
	fibOrd, ok := model.EffectorOrdinal("fib")
	if !ok {
		return "", fmt.Errorf("model has no \"fib\" effector")
	}

	target := &fibTarget{effector: fibOrd}
	td := model.Transductor(target, ribose.WithSink(&out))

	if _, err := td.Start("Fibonacci"); err != nil {
		return "", err
	}
	if _, err := td.Push([]byte(input)); err != nil {
		return "", err
	}
	if _, err := td.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// fibTarget computes the Fibonacci number of each line's zero-run
// length and writes it, as that many '0' bytes, back to the
// transductor's sink.
type fibTarget struct {
	effector int32
	t        *ribose.Transductor
}

func (f *fibTarget) Bind(t *ribose.Transductor) { f.t = t }

func (f *fibTarget) Invoke(effector int32, param int32) (ribose.Return, error) {
	if effector != f.effector {
		return ribose.None, nil
	}
	n := len(f.t.GetField(0))
	f.t.ClearField(0)

	digits := make([]byte, fibonacci(n))
	for i := range digits {
		digits[i] = '0'
	}
	digits = append(digits, '\n')
	return ribose.None, f.t.WriteOut(digits)
}

// fibonacci is the standard 1-indexed sequence (1, 1, 2, 3, 5, 8, 13, ...).
func fibonacci(n int) int {
	if n <= 0 {
		return 0
	}
	a, b := 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}
