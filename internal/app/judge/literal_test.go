package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiteralScalars(t *testing.T) {
	cases := []struct {
		input string
		want  any
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"3.14", 3.14},
		{"1e3", 1000.0},
		{"True", true},
		{"false", false},
		{"None", nil},
		{"null", nil},
		{"'hello'", "hello"},
		{`"world"`, "world"},
		{`'it\'s'`, "it's"},
	}

	for _, tc := range cases {
		got, err := ParseLiteral(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestParseLiteralSequences(t *testing.T) {
	got, err := ParseLiteral("[1, 2, 3]")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, got)

	// Tuples compare as sequences.
	got, err = ParseLiteral("(1, 'two', [3])")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "two", []any{int64(3)}}, got)

	got, err = ParseLiteral("[]")
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)

	// Trailing comma is legal.
	got, err = ParseLiteral("[1, 2,]")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, got)
}

func TestParseLiteralDicts(t *testing.T) {
	got, err := ParseLiteral(`{'a': 1, "b": [2, 3]}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1), "b": []any{int64(2), int64(3)}}, got)
}

func TestParseLiteralRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "[1, 2", "hello world", "1 2", "{1: 2}", "'unterminated"} {
		_, err := ParseLiteral(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestSemanticEqualStructural(t *testing.T) {
	// List vs tuple notation.
	assert.True(t, SemanticEqual("[1, 2, 3]", "(1, 2, 3)"))
	// Whitespace differences.
	assert.True(t, SemanticEqual("[1,2,3]", "[1, 2, 3]"))
	// Integer vs float.
	assert.True(t, SemanticEqual("1", "1.0"))
	// Python vs JSON booleans.
	assert.True(t, SemanticEqual("True", "true"))
	// Quoting styles.
	assert.True(t, SemanticEqual("'abc'", `"abc"`))

	assert.False(t, SemanticEqual("[1, 2, 3]", "[1, 2]"))
	assert.False(t, SemanticEqual("[1, 2, 3]", "[3, 2, 1]"))
	assert.False(t, SemanticEqual("1", "2"))
}

func TestSemanticEqualFallsBackToStrings(t *testing.T) {
	assert.True(t, SemanticEqual("  not a literal  ", "not a literal"))
	assert.False(t, SemanticEqual("not a literal", "another string"))

	// One side parseable, the other not: plain string comparison.
	assert.False(t, SemanticEqual("[1, 2]", "one two"))
}

func TestRenderPython(t *testing.T) {
	value, err := ParseLiteral(`[1, 'a', True, None, [2.5], {'k': 3}]`)
	require.NoError(t, err)
	assert.Equal(t, "[1, 'a', True, None, [2.5], {'k': 3}]", renderPython(value))
}

func TestRenderJSON(t *testing.T) {
	value, err := ParseLiteral(`(1, 'a', True, None)`)
	require.NoError(t, err)
	assert.Equal(t, `[1, "a", true, null]`, renderJSON(value))
}
