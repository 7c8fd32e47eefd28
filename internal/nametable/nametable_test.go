package nametable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternAssignsDenseOrdinals(t *testing.T) {
	tb := New(0)
	require.Equal(t, 0, tb.Intern("anonymous"))
	require.Equal(t, 1, tb.Intern("date"))
	require.Equal(t, 0, tb.Intern("anonymous"), "re-interning returns the existing ordinal")
	require.Equal(t, 2, tb.Len())
}

func TestLookupAndName(t *testing.T) {
	tb := New(0)
	tb.Intern("nul")
	tb.Intern("eol")

	ord, ok := tb.Lookup("eol")
	require.True(t, ok)
	require.Equal(t, 1, ord)
	require.Equal(t, "eol", tb.Name(ord))

	_, ok = tb.Lookup("missing")
	require.False(t, ok)
}

func TestFromNamesRejectsDuplicates(t *testing.T) {
	_, err := FromNames([]string{"a", "b", "a"})
	require.Error(t, err)

	tb, err := FromNames([]string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, 3, tb.Len())
	require.Equal(t, []string{"a", "b", "c"}, tb.Names())
}
