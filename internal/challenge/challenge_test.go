package challenge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := Generate()
		require.Len(t, code, Length)
		for _, c := range code {
			assert.Containsf(t, Alphabet, string(c), "code %q uses a character outside the alphabet", code)
		}
	}
}

func TestAlphabetExcludesAmbiguousCharacters(t *testing.T) {
	require.Len(t, Alphabet, 32)
	for _, bad := range []string{"0", "O", "1", "I"} {
		assert.NotContains(t, Alphabet, bad)
	}
}

func TestGenerateProducesFreshCodes(t *testing.T) {
	// 32^5 possible codes; 50 draws colliding with their predecessor would
	// mean the generator is broken, not unlucky.
	prev := Generate()
	repeats := 0
	for i := 0; i < 50; i++ {
		next := Generate()
		if next == prev {
			repeats++
		}
		prev = next
	}
	assert.Zero(t, repeats)
}

func TestMatchesCaseInsensitive(t *testing.T) {
	assert.True(t, Matches("AB3FG", "ab3fg"))
	assert.True(t, Matches("AB3FG", "AB3FG"))
	assert.True(t, Matches("AB3FG", "  ab3Fg  "))
	assert.False(t, Matches("AB3FG", "AB3FF"))
	assert.False(t, Matches("AB3FG", ""))
}

func TestMatchesDoesNotIgnoreInnerWhitespace(t *testing.T) {
	assert.False(t, Matches("AB3FG", "AB 3FG"))
	assert.False(t, Matches("AB3FG", strings.Join([]string{"AB3", "FG"}, "\t")))
}
