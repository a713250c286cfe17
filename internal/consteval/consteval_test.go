package consteval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/quasi/internal/parser"
)

func eval(t *testing.T, src string) (interface{}, error) {
	t.Helper()
	e, err := parser.ParseExpression(src)
	require.NoError(t, err, src)
	return Evaluate(e)
}

func TestEvaluateConstants(t *testing.T) {
	tests := []struct {
		src  string
		want interface{}
	}{
		{"2", int64(2)},
		{"0x10 + 1_000", int64(1016)},
		{"-(3 * 4) % 5", int64(-2)},
		{"7 / 2", int64(3)},
		{"7 / 2.0", 3.5},
		{"1.5e1", 15.0},
		{"'k'", 'k'},
		{"true && !false", true},
		{"false || 1 < 2", true},
		{"\"a\" + 1 + 'b'", "a1b"},
		{`"n=${1 + 1}\n"`, "n=2\n"},
		{"null", nil},
		{"2 == 2", true},
		{"\"x\" != \"x\"", false},
	}
	for _, tc := range tests {
		got, err := eval(t, tc.src)
		require.NoError(t, err, tc.src)
		assert.Equal(t, tc.want, got, tc.src)
	}
}

func TestShortCircuit(t *testing.T) {
	got, err := eval(t, "false && unknown")
	require.NoError(t, err)
	assert.Equal(t, false, got)

	got, err = eval(t, "true || unknown")
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestNamedConstants(t *testing.T) {
	e, err := parser.ParseExpression("K * 2")
	require.NoError(t, err)
	got, err := Folder{Constants: map[string]interface{}{"K": int64(21)}}.Evaluate(e, NoConstraint)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestNotConstant(t *testing.T) {
	for _, src := range []string{"x", "f(1)", "1 / 0", "-true", "\"a\" - 1", "x++"} {
		_, err := eval(t, src)
		var ce *Error
		assert.True(t, errors.As(err, &ce), "%s: %v", src, err)
	}
}
