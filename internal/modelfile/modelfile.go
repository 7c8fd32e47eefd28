// Package modelfile implements the persistent model format: the
// on-disk binary layout that holds compiled transducers, name tables,
// and effector-parameter tables, plus its loader/verifier.
//
// The writer/reader pair is a thin struct wrapping an io.Writer/
// io.Reader with one small helper per primitive shape (writeString,
// writeBytes, writeU16, ...), each write/read big-endian throughout.
package modelfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ribose-run/ribose/internal/transition"
)

// Magic is the fixed 7-byte file signature.
var Magic = [7]byte{'R', 'I', 'B', 'O', 'S', 'E', 0}

// CurrentVersion is the model file format version this package writes.
const CurrentVersion uint16 = 1

// ModelError reports a malformed or inconsistent model file.
type ModelError struct {
	Reason string
	Cause  error
}

func (e *ModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("modelfile: %s: %s", e.Reason, e.Cause)
	}
	return fmt.Sprintf("modelfile: %s", e.Reason)
}

func (e *ModelError) Unwrap() error { return e.Cause }

// RawParam is one compiled effector parameter: a list of raw byte-array
// arguments (a raw [[byte]] argument list).
// Resolving the `~field`/`!signal`/`@transducer` references any of these
// arguments encode is the loader's job, done with the name tables at
// hand (see the root package's compileParam).
type RawParam [][]byte

// EffectorParams is one entry of the parameterized-effector block: the
// dense, ordinal-indexed parameter list for one named effector.
type EffectorParams struct {
	Effector string
	Params   []RawParam
}

// RawTransducer is one transducer record exactly as stored on disk,
// before it is bound into a transition.Transducer (which additionally
// needs the model's effector count to validate against).
type RawTransducer struct {
	Name      string
	NumStates uint32
	NumClass  uint16
	Eq        []uint16 // length 256+len(Signals); entry is an equivalence class index
	Kernel    []transition.Cell
	Vectors   []int32
}

// RawModel is the full, decoded-but-unverified contents of a model
// file.
type RawModel struct {
	Version     uint16
	TargetClass string
	Signals     []string
	Fields      []string
	Effectors   []string
	ParamTables []EffectorParams
	Transducers []RawTransducer
}

// Save writes m to w in the on-disk binary layout Load reads back.
func Save(w io.Writer, m *RawModel) error {
	mw := &writer{w: w}
	mw.writeRaw(Magic[:])
	mw.writeU16(CurrentVersion)
	mw.writeString(m.TargetClass)

	mw.writeU16(uint16(len(m.Signals)))
	for _, s := range m.Signals {
		mw.writeString(s)
	}

	mw.writeU16(uint16(len(m.Fields)))
	for _, f := range m.Fields {
		mw.writeString(f)
	}

	mw.writeU16(uint16(len(m.Effectors)))
	for _, e := range m.Effectors {
		mw.writeString(e)
	}

	mw.writeU16(uint16(len(m.ParamTables)))
	for _, pt := range m.ParamTables {
		mw.writeString(pt.Effector)
		mw.writeU16(uint16(len(pt.Params)))
		for _, p := range pt.Params {
			mw.writeU16(uint16(len(p)))
			for _, arg := range p {
				mw.writeBytes(arg)
			}
		}
	}

	mw.writeU16(uint16(len(m.Transducers)))
	for _, t := range m.Transducers {
		mw.writeString(t.Name)
		mw.writeU32(t.NumStates)
		mw.writeU16(t.NumClass)
		for _, cls := range t.Eq {
			mw.writeU16(cls)
		}
		for _, cell := range t.Kernel {
			mw.writeI32(cell.Next)
			mw.writeI32(cell.Effect)
		}
		mw.writeU32(uint32(len(t.Vectors)))
		for _, v := range t.Vectors {
			mw.writeI32(v)
		}
	}

	return mw.err
}

// Load reads and structurally decodes a model from r. It does not
// perform cross-reference verification (see the root package's
// Load, which composes this Load with invariant checks); it does
// validate that the file is well-formed enough to decode at all.
func Load(r io.Reader) (*RawModel, error) {
	mr := &reader{r: bufio.NewReader(r)}

	var magic [7]byte
	mr.readRaw(magic[:])
	if mr.err == nil && magic != Magic {
		return nil, &ModelError{Reason: "bad magic"}
	}

	version := mr.readU16()
	if mr.err == nil && version != CurrentVersion {
		return nil, &ModelError{Reason: fmt.Sprintf("unsupported version %d", version)}
	}

	m := &RawModel{Version: version}
	m.TargetClass = mr.readString()

	m.Signals = mr.readStrings()
	m.Fields = mr.readStrings()
	m.Effectors = mr.readStrings()

	nParamTables := mr.readU16()
	for i := uint16(0); i < nParamTables && mr.err == nil; i++ {
		pt := EffectorParams{Effector: mr.readString()}
		nParams := mr.readU16()
		for j := uint16(0); j < nParams && mr.err == nil; j++ {
			nArgs := mr.readU16()
			param := make(RawParam, 0, nArgs)
			for k := uint16(0); k < nArgs && mr.err == nil; k++ {
				param = append(param, mr.readBytes())
			}
			pt.Params = append(pt.Params, param)
		}
		m.ParamTables = append(m.ParamTables, pt)
	}

	nTransducers := mr.readU16()
	for i := uint16(0); i < nTransducers && mr.err == nil; i++ {
		var t RawTransducer
		t.Name = mr.readString()
		t.NumStates = mr.readU32()
		t.NumClass = mr.readU16()

		eqLen := 256 + len(m.Signals)
		t.Eq = make([]uint16, eqLen)
		for k := 0; k < eqLen && mr.err == nil; k++ {
			t.Eq[k] = mr.readU16()
		}

		kernelLen := int(t.NumClass) * int(t.NumStates)
		t.Kernel = make([]transition.Cell, kernelLen)
		for k := 0; k < kernelLen && mr.err == nil; k++ {
			next := mr.readI32()
			effect := mr.readI32()
			t.Kernel[k] = transition.Cell{Next: next, Effect: effect}
		}

		vecLen := mr.readU32()
		t.Vectors = make([]int32, vecLen)
		for k := uint32(0); k < vecLen && mr.err == nil; k++ {
			t.Vectors[k] = mr.readI32()
		}

		m.Transducers = append(m.Transducers, t)
	}

	if mr.err != nil {
		return nil, &ModelError{Reason: "truncated or malformed model file", Cause: mr.err}
	}
	return m, nil
}

// writer is a thin, error-sticky wrapper over io.Writer: once a write
// fails, every subsequent call is a no-op, so callers can chain writes
// without checking each one.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) writeRaw(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *writer) writeU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.writeRaw(b[:])
}

func (w *writer) writeU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.writeRaw(b[:])
}

func (w *writer) writeI32(v int32) {
	w.writeU32(uint32(v))
}

func (w *writer) writeBytes(b []byte) {
	w.writeU32(uint32(len(b)))
	w.writeRaw(b)
}

func (w *writer) writeString(s string) {
	w.writeU16(uint16(len(s)))
	w.writeRaw([]byte(s))
}

// reader is the error-sticky counterpart to writer.
type reader struct {
	r   io.Reader
	err error
}

func (r *reader) readRaw(b []byte) {
	if r.err != nil {
		return
	}
	_, r.err = io.ReadFull(r.r, b)
}

func (r *reader) readU16() uint16 {
	var b [2]byte
	r.readRaw(b[:])
	if r.err != nil {
		return 0
	}
	return binary.BigEndian.Uint16(b[:])
}

func (r *reader) readU32() uint32 {
	var b [4]byte
	r.readRaw(b[:])
	if r.err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(b[:])
}

func (r *reader) readI32() int32 {
	return int32(r.readU32())
}

func (r *reader) readBytes() []byte {
	n := r.readU32()
	if r.err != nil || n == 0 {
		return nil
	}
	b := make([]byte, n)
	r.readRaw(b)
	if r.err != nil {
		return nil
	}
	return b
}

func (r *reader) readString() string {
	n := r.readU16()
	if r.err != nil || n == 0 {
		return ""
	}
	b := make([]byte, n)
	r.readRaw(b)
	if r.err != nil {
		return ""
	}
	return string(b)
}

func (r *reader) readStrings() []string {
	n := r.readU16()
	out := make([]string, 0, n)
	for i := uint16(0); i < n && r.err == nil; i++ {
		out = append(out, r.readString())
	}
	return out
}
