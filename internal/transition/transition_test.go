package transition

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildSimple builds a 1-class, 2-state transducer with one cell firing
// simple effector 5.
func buildSimple() *Transducer {
	return &Transducer{
		NumStates: 2,
		NumClass:  1,
		Eq:        []int32{0, 0, 0},
		Kernel: []Cell{
			{Next: 1, Effect: 5}, // class 0, state 0
			{Next: 1, Effect: 1}, // class 0, state 1 (null effector)
		},
	}
}

func TestTransitionLookup(t *testing.T) {
	tr := buildSimple()
	c := tr.Transition(0, 0)
	require.Equal(t, int32(1), c.Next)
	require.True(t, c.IsSimple())
	require.False(t, c.IsVector())
	require.False(t, c.IsDomainError())
}

func TestDomainErrorCell(t *testing.T) {
	tr := &Transducer{
		NumStates: 1,
		NumClass:  1,
		Eq:        []int32{0},
		Kernel:    []Cell{{Next: 0, Effect: 0}},
	}
	c := tr.Transition(0, 0)
	require.True(t, c.IsDomainError())
}

func TestVectorDecodeSimpleAndParameterized(t *testing.T) {
	// vector: simple effector 3, then parameterized effector 7 with param 2, then terminator.
	tr := &Transducer{Vectors: []int32{3, -7, 2, 0}}
	it := tr.Vector(0)

	e, p, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, int32(3), e)
	require.Equal(t, int32(-1), p)

	e, p, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, int32(7), e)
	require.Equal(t, int32(2), p)

	_, _, ok = it.Next()
	require.False(t, ok)
}

func TestVectorDecodeIsInvariantUnderBoundaryPermutation(t *testing.T) {
	// two vectors packed back to back; each decodes independently from
	// its own start offset regardless of what precedes it in the pool.
	pool := []int32{1, 2, 0, -9, 4, 0}
	tr := &Transducer{Vectors: pool}

	it0 := tr.Vector(0)
	var got0 []int32
	for {
		e, p, ok := it0.Next()
		if !ok {
			break
		}
		got0 = append(got0, e, p)
	}
	require.Equal(t, []int32{1, -1, 2, -1}, got0)

	it1 := tr.Vector(3)
	var got1 []int32
	for {
		e, p, ok := it1.Next()
		if !ok {
			break
		}
		got1 = append(got1, e, p)
	}
	require.Equal(t, []int32{9, 4}, got1)
}

func TestValidateCatchesOutOfRangeNextState(t *testing.T) {
	tr := &Transducer{
		NumStates: 1,
		NumClass:  1,
		Eq:        []int32{0},
		Kernel:    []Cell{{Next: 5, Effect: 1}},
	}
	require.Error(t, tr.Validate(1))
}

func TestValidateCatchesOutOfRangeEffector(t *testing.T) {
	tr := &Transducer{
		NumStates: 1,
		NumClass:  1,
		Eq:        []int32{0},
		Kernel:    []Cell{{Next: 0, Effect: 99}},
	}
	require.Error(t, tr.Validate(2))
}

func TestValidateAcceptsWellFormedTable(t *testing.T) {
	tr := buildSimple()
	tr.Vectors = []int32{0}
	require.NoError(t, tr.Validate(6))
}
