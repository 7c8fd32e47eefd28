package ribose

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ribose-run/ribose/internal/effect"
	"github.com/ribose-run/ribose/internal/fields"
	"github.com/ribose-run/ribose/internal/instack"
)

var (
	errBadCountParams            = errors.New("ribose: count requires a (~field, !signal) parameter pair")
	errExpectedFieldOperand      = errors.New("ribose: expected a single ~field operand")
	errExpectedSignalOperand     = errors.New("ribose: expected a single !signal operand")
	errExpectedTransducerOperand = errors.New("ribose: expected a single @transducer operand")
)

func errUnknownBuiltin(e int32) error {
	return fmt.Errorf("ribose: unknown built-in effector ordinal %d", e)
}

// Built-in effector ordinals, fixed by builtinNames' order in model.go.
const (
	effDomainError int32 = iota
	effNull
	effSelect
	effPaste
	effCopy
	effCut
	effClear
	effCount
	effSignal
	effIn
	effOut
	effMark
	effReset
	effStart
	effShift
	effStop
	effPause
)

// invokeBuiltin executes one of the always-available effectors listed
// to every transducer.
func (t *Transductor) invokeBuiltin(e int32, p int32) (effect.Return, error) {
	operands, err := t.params(e, p)
	if err != nil {
		return 0, &EffectorError{Effector: t.model.effectors.Name(e), Cause: err}
	}

	switch e {
	case effDomainError:
		// Never dispatched here: the core loop handles effect code 0
		// before reaching invoke.
		return effect.WithSignal(effect.None, int32(instack.SignalOrdinal(instack.Nul))), nil

	case effNull:
		return effect.None, nil

	case effSelect:
		ord := fields.Anonymous
		if len(operands) > 0 && operands[0].Kind == OperandField {
			ord = int(operands[0].Ordinal)
		}
		t.fields.Select(ord)
		return effect.None, nil

	case effPaste:
		if len(operands) > 0 {
			t.fields.PasteBytes(t.resolveBytes(operands))
		} else if instack.IsByte(t.lastSym) {
			t.fields.PasteByte(byte(t.lastSym))
		}
		return effect.None, nil

	case effCopy:
		dst, err := requireFieldOperand(operands)
		if err != nil {
			return 0, &EffectorError{Effector: "copy", Cause: err}
		}
		t.fields.Copy(dst)
		return effect.None, nil

	case effCut:
		dst, err := requireFieldOperand(operands)
		if err != nil {
			return 0, &EffectorError{Effector: "cut", Cause: err}
		}
		t.fields.Cut(dst)
		return effect.None, nil

	case effClear:
		return t.doClear(operands), nil

	case effCount:
		return t.doCount(operands)

	case effSignal:
		sym, err := requireSignalOperand(operands)
		if err != nil {
			return 0, &EffectorError{Effector: "signal", Cause: err}
		}
		return effect.WithSignal(effect.None, sym), nil

	case effIn:
		if _, err := t.Push(t.resolveBytes(operands)); err != nil {
			return 0, &EffectorError{Effector: "in", Cause: err}
		}
		return effect.Input, nil

	case effOut:
		if _, err := t.sink.Write(t.resolveBytes(operands)); err != nil {
			return 0, &EffectorError{Effector: "out", Cause: err}
		}
		return effect.None, nil

	case effMark:
		t.in.Mark()
		return effect.None, nil

	case effReset:
		t.in.Reset()
		return effect.None, nil

	case effStart:
		ord, err := requireTransducerOperand(operands)
		if err != nil {
			return 0, &EffectorError{Effector: "start", Cause: err}
		}
		t.frames = append(t.frames, frame{transducer: ord, state: 0})
		return effect.Start, nil

	case effShift:
		ord, err := requireTransducerOperand(operands)
		if err != nil {
			return 0, &EffectorError{Effector: "shift", Cause: err}
		}
		if len(t.frames) == 0 {
			// shift on an empty stack behaves like start: a stop earlier
			// in the same vector can empty the stack before shift runs.
			t.frames = append(t.frames, frame{transducer: ord, state: 0})
			return effect.Start, nil
		}
		*t.top() = frame{transducer: ord, state: 0}
		return effect.None, nil

	case effStop:
		t.frames = t.frames[:len(t.frames)-1]
		return effect.Stop, nil

	case effPause:
		return effect.Pause, nil

	default:
		return 0, &EffectorError{Effector: t.model.effectors.Name(e), Cause: errUnknownBuiltin(e)}
	}
}

// doClear implements clear's three forms: clear(~field), clear(~*), and
// bare clear (clears the selection).
func (t *Transductor) doClear(operands []Operand) effect.Return {
	if len(operands) == 0 {
		t.fields.Clear(t.fields.Selected())
		return effect.None
	}
	if operands[0].Kind == OperandAllFields {
		t.fields.ClearAll()
		return effect.None
	}
	t.fields.Clear(int(operands[0].Ordinal))
	return effect.None
}

// doCount implements the counter effector: decrement a field's decimal
// scalar value, signaling when it reaches zero. A non-numeric field is
// a domain error, not a raised error.
func (t *Transductor) doCount(operands []Operand) (effect.Return, error) {
	if len(operands) != 2 || operands[0].Kind != OperandField || operands[1].Kind != OperandSignal {
		return 0, &EffectorError{Effector: "count", Cause: errBadCountParams}
	}
	ord := int(operands[0].Ordinal)
	sig := operands[1].Ordinal

	v, err := t.fields.DecodeI64(ord)
	if err != nil {
		return effect.WithSignal(effect.None, int32(instack.SignalOrdinal(instack.Nul))), nil
	}
	v--
	prevSel := t.fields.Selected()
	t.fields.Select(ord)
	t.fields.Clear(ord)
	t.fields.PasteBytes([]byte(strconv.FormatInt(v, 10)))
	t.fields.Select(prevSel)
	if v == 0 {
		return effect.WithSignal(effect.None, sig), nil
	}
	return effect.None, nil
}

func requireFieldOperand(operands []Operand) (int, error) {
	if len(operands) != 1 || operands[0].Kind != OperandField {
		return 0, errExpectedFieldOperand
	}
	return int(operands[0].Ordinal), nil
}

func requireSignalOperand(operands []Operand) (int32, error) {
	if len(operands) != 1 || operands[0].Kind != OperandSignal {
		return 0, errExpectedSignalOperand
	}
	return operands[0].Ordinal, nil
}

func requireTransducerOperand(operands []Operand) (int, error) {
	if len(operands) != 1 || operands[0].Kind != OperandTransducer {
		return 0, errExpectedTransducerOperand
	}
	return int(operands[0].Ordinal), nil
}
