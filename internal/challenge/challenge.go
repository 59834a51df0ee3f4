// Package challenge generates the short confirmation codes a user must retype
// before a destructive action (soft delete, recover) is sent to the backend.
// This is a UX speed bump against accidental clicks, not a security control.
package challenge

import (
	"crypto/rand"
	"strings"
)

// Alphabet is the set of characters codes are drawn from: uppercase letters
// and digits with the look-alike pairs 0/O and 1/I removed. Exactly 32
// characters, so a random byte maps onto it without modulo bias.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the fixed code length.
const Length = 5

// Generate returns a fresh random code. Codes are never mutated in place;
// callers wanting a new code call Generate again.
func Generate() string {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken,
		// at which point the process has bigger problems.
		panic("challenge: read random: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf)
}

// Matches reports whether the user's input confirms the displayed code.
// Comparison is case-insensitive and ignores surrounding whitespace.
func Matches(code, input string) bool {
	return strings.EqualFold(code, strings.TrimSpace(input))
}
