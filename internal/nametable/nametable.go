// Package nametable interns the name tables carried by a compiled model:
// signals, fields, effectors and transducers are all looked up by UTF-8
// name and assigned a dense ordinal at build time.
package nametable

import (
	"fmt"
	"hash/maphash"

	"github.com/aristanetworks/gomap"
)

// Table maps names to ordinals and back. The zero value is not usable;
// construct with New.
type Table struct {
	seed   maphash.Seed
	byName *gomap.Map[string, int]
	names  []string
}

// New returns an empty table with room for size entries.
func New(size int) *Table {
	seed := maphash.MakeSeed()
	t := &Table{seed: seed}
	t.byName = gomap.NewHint[string, int](size, t.equal, t.hash)
	return t
}

func (t *Table) equal(a, b string) bool { return a == b }

func (t *Table) hash(s string) uint64 {
	var h maphash.Hash
	h.SetSeed(t.seed)
	h.WriteString(s)
	return h.Sum64()
}

// Intern assigns name the next dense ordinal if it is not already present,
// and returns its ordinal either way.
func (t *Table) Intern(name string) int {
	if ord, ok := t.byName.Get(name); ok {
		return ord
	}
	ord := len(t.names)
	t.names = append(t.names, name)
	t.byName.Set(name, ord)
	return ord
}

// Lookup returns the ordinal assigned to name, if any.
func (t *Table) Lookup(name string) (int, bool) {
	return t.byName.Get(name)
}

// Name returns the name assigned to ordinal ord.
//
// It panics if ord is out of range; callers are expected to have verified
// ord against Len at model-load time, since every ordinal referenced by
// a transducer must be present in the model's name table.
func (t *Table) Name(ord int) string {
	return t.names[ord]
}

// Len returns the number of interned names.
func (t *Table) Len() int {
	return len(t.names)
}

// Names returns the interned names in ordinal order. The returned slice
// must not be mutated by the caller.
func (t *Table) Names() []string {
	return t.names
}

// FromNames rebuilds a Table from an ordinal-ordered name list, as read
// from a model file. Duplicate names are rejected: a model file with two
// fields of the same name is malformed.
func FromNames(names []string) (*Table, error) {
	t := New(len(names))
	for i, name := range names {
		if ord := t.Intern(name); ord != i {
			return nil, fmt.Errorf("nametable: duplicate name %q at ordinal %d (first seen at %d)", name, i, ord)
		}
	}
	return t, nil
}
