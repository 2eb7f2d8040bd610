package randx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinCodeShape(t *testing.T) {
	seen := make(map[string]struct{})

	for range 100 {
		code, err := JoinCode()
		require.NoError(t, err)
		assert.Len(t, code, JoinCodeLength)

		for _, char := range code {
			assert.True(t, strings.ContainsRune(JoinCodeChars, char), "unexpected character %q in %s", char, code)
		}

		seen[code] = struct{}{}
	}

	// 100 draws from a 36^8 space should never collide.
	assert.Len(t, seen, 100)
}

func TestIsValidJoinCode(t *testing.T) {
	code, err := JoinCode()
	require.NoError(t, err)
	assert.True(t, IsValidJoinCode(code))

	assert.False(t, IsValidJoinCode(""))
	assert.False(t, IsValidJoinCode("ABC123"))
	assert.False(t, IsValidJoinCode("abcd1234"))
	assert.False(t, IsValidJoinCode("ABCD123!"))
	assert.False(t, IsValidJoinCode("ABCD12345"))
}
