package ribose

import (
	"fmt"
	"io"

	"github.com/ribose-run/ribose/internal/effect"
	"github.com/ribose-run/ribose/internal/modelfile"
	"github.com/ribose-run/ribose/internal/nametable"
	"github.com/ribose-run/ribose/internal/transition"
	"go.uber.org/zap"
)

// builtinNames is the fixed prefix every model's effector table must
// carry, in order: ordinals 0 and 1 are reserved for the
// domain-error marker and the no-op, and the remaining built-ins are
// always available to every transducer.
var builtinNames = []string{
	"0", "1", "select", "paste", "copy", "cut", "clear", "count",
	"signal", "in", "out", "mark", "reset", "start", "shift", "stop", "pause",
}

// reservedSignalNames is the fixed prefix every model's signal table
// must carry.
var reservedSignalNames = []string{"nul", "nil", "eol", "eos"}

// Model is an immutable, loaded Ribose model: name tables, the compiled
// effector registry and every transducer's compiled table, shared
// read-only across any number of Transductors.
type Model struct {
	targetClass string

	signals    *nametable.Table
	fields     *nametable.Table
	effectors  *effect.Registry
	transducers *nametable.Table

	tables []*transition.Transducer // indexed by transducer ordinal
	logger *zap.Logger
}

// ModelOption configures Load.
type ModelOption func(*modelConfig)

type modelConfig struct {
	logger *zap.Logger
}

// WithModelLogger injects a structured logger used while loading and
// validating the model. The default is zap.NewNop().
func WithModelLogger(l *zap.Logger) ModelOption {
	return func(c *modelConfig) { c.logger = l }
}

// Load reads and verifies a model from r. It verifies all
// cross-references; any dangling reference is a ModelError.
func Load(r io.Reader, opts ...ModelOption) (*Model, error) {
	cfg := modelConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	raw, err := modelfile.Load(r)
	if err != nil {
		return nil, &ModelError{Reason: "decode", Cause: err}
	}

	signals, err := buildReservedTable(raw.Signals, reservedSignalNames, "signal")
	if err != nil {
		return nil, &ModelError{Reason: "signal table", Cause: err}
	}

	fields, err := nametable.FromNames(raw.Fields)
	if err != nil {
		return nil, &ModelError{Reason: "field table", Cause: err}
	}
	if fields.Len() == 0 || fields.Name(0) != "anonymous" {
		return nil, &ModelError{Reason: "field table: ordinal 0 must be the reserved \"anonymous\" field"}
	}

	effectorNames, err := buildReservedTable(raw.Effectors, builtinNames, "effector")
	if err != nil {
		return nil, &ModelError{Reason: "effector table", Cause: err}
	}
	registry := effect.NewRegistry(effectorNames)

	for _, pt := range raw.ParamTables {
		ord, ok := registry.Lookup(pt.Effector)
		if !ok {
			return nil, &ModelError{Reason: fmt.Sprintf("parameter table references unknown effector %q", pt.Effector)}
		}
		params := make([]any, 0, len(pt.Params))
		for _, rawParam := range pt.Params {
			operands, err := compileParam(rawParam)
			if err != nil {
				return nil, &ModelError{Reason: fmt.Sprintf("effector %q parameter", pt.Effector), Cause: err}
			}
			if err := checkOperandRefs(operands, fields, signals, len(raw.Transducers)); err != nil {
				return nil, &ModelError{Reason: fmt.Sprintf("effector %q parameter", pt.Effector), Cause: err}
			}
			params = append(params, operands)
		}
		registry.SetParams(ord, params)
	}

	transducerNames, err := nametable.FromNames(collectTransducerNames(raw.Transducers))
	if err != nil {
		return nil, &ModelError{Reason: "transducer table", Cause: err}
	}

	tables := make([]*transition.Transducer, len(raw.Transducers))
	for i, rt := range raw.Transducers {
		t, err := buildTransducer(i, rt, signals, registry)
		if err != nil {
			return nil, &ModelError{Reason: fmt.Sprintf("transducer %q", rt.Name), Cause: err}
		}
		tables[i] = t
	}

	cfg.logger.Debug("model loaded",
		zap.String("target_class", raw.TargetClass),
		zap.Int("signals", signals.Len()),
		zap.Int("fields", fields.Len()),
		zap.Int("effectors", effectorNames.Len()),
		zap.Int("transducers", transducerNames.Len()),
	)

	return &Model{
		targetClass: raw.TargetClass,
		signals:     signals,
		fields:      fields,
		effectors:   registry,
		transducers: transducerNames,
		tables:      tables,
		logger:      cfg.logger,
	}, nil
}

// buildReservedTable builds a name table from names, verifying that its
// first len(reserved) entries match reserved exactly and in order.
func buildReservedTable(names []string, reserved []string, kind string) (*nametable.Table, error) {
	if len(names) < len(reserved) {
		return nil, fmt.Errorf("%s table has %d entries, expected at least %d reserved", kind, len(names), len(reserved))
	}
	for i, want := range reserved {
		if names[i] != want {
			return nil, fmt.Errorf("%s table ordinal %d must be %q, got %q", kind, i, want, names[i])
		}
	}
	return nametable.FromNames(names)
}

func collectTransducerNames(rts []modelfile.RawTransducer) []string {
	names := make([]string, len(rts))
	for i, rt := range rts {
		names[i] = rt.Name
	}
	return names
}

// checkOperandRefs verifies that every field operand's ordinal resolves
// against fields, every signal operand's ordinal resolves against
// signals, and every transducer operand's ordinal is below
// numTransducers, for one compiled parameter.
func checkOperandRefs(operands []Operand, fields, signals *nametable.Table, numTransducers int) error {
	for _, op := range operands {
		switch op.Kind {
		case OperandField:
			if int(op.Ordinal) >= fields.Len() {
				return fmt.Errorf("field ordinal %d not present in model", op.Ordinal)
			}
		case OperandSignal:
			k := int(op.Ordinal)
			if k < 0 || k >= signals.Len() {
				return fmt.Errorf("signal ordinal %d not present in model", op.Ordinal)
			}
		case OperandTransducer:
			if op.Ordinal < 0 || int(op.Ordinal) >= numTransducers {
				return fmt.Errorf("transducer ordinal %d not present in model", op.Ordinal)
			}
		}
	}
	return nil
}

// buildTransducer converts one decoded RawTransducer into its compiled
// transition.Transducer, validating its state/class/effect bounds and
// its parameter indexes, and collecting the field/signal ordinal
// subsets its compiled parameters reference (already verified by
// checkOperandRefs).
func buildTransducer(ordinal int, rt modelfile.RawTransducer, signals *nametable.Table, registry *effect.Registry) (*transition.Transducer, error) {
	eq := make([]int32, len(rt.Eq))
	for i, v := range rt.Eq {
		eq[i] = int32(v)
	}

	t := &transition.Transducer{
		Name:      ordinal,
		NumStates: int32(rt.NumStates),
		NumClass:  int32(rt.NumClass),
		Eq:        eq,
		Kernel:    rt.Kernel,
		Vectors:   rt.Vectors,
	}

	if err := t.Validate(registry.Count()); err != nil {
		return nil, err
	}

	fields, signals, err := referencedOrdinals(t, registry)
	if err != nil {
		return nil, err
	}
	t.Fields, t.Signals = fields, signals
	return t, nil
}

// referencedOrdinals walks every effector invocation reachable from t's
// kernel and vector pool and collects the distinct field/signal
// ordinals its compiled parameters reference. It fails if an invocation
// names a parameter index that its effector's table does not hold.
func referencedOrdinals(t *transition.Transducer, registry *effect.Registry) (fields []int, signals []int, err error) {
	seenField := make(map[int]bool)
	seenSignal := make(map[int]bool)

	record := func(e int32, p int32) {
		if p < 0 || err != nil {
			return
		}
		param, perr := registry.Param(e, p)
		if perr != nil {
			err = perr
			return
		}
		operands, ok := param.([]Operand)
		if !ok {
			return
		}
		for _, op := range operands {
			switch op.Kind {
			case OperandField:
				if !seenField[int(op.Ordinal)] {
					seenField[int(op.Ordinal)] = true
					fields = append(fields, int(op.Ordinal))
				}
			case OperandSignal:
				k := int(op.Ordinal)
				if !seenSignal[k] {
					seenSignal[k] = true
					signals = append(signals, k)
				}
			}
		}
	}

	for class := int32(0); class < t.NumClass; class++ {
		for state := int32(0); state < t.NumStates; state++ {
			cell := t.Transition(class, state)
			switch {
			case cell.IsSimple():
				record(cell.Effect, -1)
			case cell.IsVector():
				it := t.Vector(-cell.Effect)
				for {
					e, p, ok := it.Next()
					if !ok {
						break
					}
					record(e, p)
				}
			}
		}
	}
	return fields, signals, err
}

// TargetClass returns the host target class name this model was
// compiled against.
func (m *Model) TargetClass() string { return m.targetClass }

// EffectorOrdinal resolves an effector name to the dense ordinal a
// Target.Invoke implementation will see, for hosts that need to
// recognize their own custom effectors by name rather than by a
// hardcoded ordinal.
func (m *Model) EffectorOrdinal(name string) (int32, bool) {
	return m.effectors.Lookup(name)
}

// FieldOrdinal resolves a field name to its ordinal.
func (m *Model) FieldOrdinal(name string) (int, bool) {
	return m.fields.Lookup(name)
}

// Transductor binds a new Transductor to target, sharing this model's
// read-only tables.
func (m *Model) Transductor(target Target, opts ...TransductorOption) *Transductor {
	return newTransductor(m, target, opts...)
}
