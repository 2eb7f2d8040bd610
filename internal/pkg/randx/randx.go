/*
Package randx provides functions for generating cryptographically secure random identifiers.

It is primarily used to generate fixed-length join codes for rooms and standard UUID
identifiers for entities and messages.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// JoinCodeChars defines the character set used for join codes (0-9, A-Z).
	JoinCodeChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// JoinCodeLength is the fixed length required for a room join code.
	JoinCodeLength = 8
)

// JoinCode generates a room join code using a cryptographically secure random
// number generator (crypto/rand). It returns a string of length JoinCodeLength
// drawn from JoinCodeChars and any error encountered.
func JoinCode() (string, error) {
	charsetLen := big.NewInt(int64(len(JoinCodeChars)))
	result := make([]byte, JoinCodeLength)

	for i := range JoinCodeLength {
		num, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for join code: %v", err)
		}

		result[i] = JoinCodeChars[num.Int64()]
	}

	return string(result), nil
}

// IsValidJoinCode checks if the given string is a valid join code.
// Validity criteria include: length equals JoinCodeLength and all characters
// belong to the JoinCodeChars set.
func IsValidJoinCode(code string) bool {
	if len(code) != JoinCodeLength {
		return false
	}

	for _, char := range code {
		if !strings.ContainsRune(JoinCodeChars, char) {
			return false
		}
	}

	return true
}

// NewID generates a standard UUID v4 string for entity identifiers.
func NewID() string {
	return uuid.New().String()
}
