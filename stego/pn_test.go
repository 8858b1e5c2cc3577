package stego

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePNDeterministic(t *testing.T) {
	a := GeneratePN(42, 128)
	b := GeneratePN(42, 128)
	assert.Equal(t, a, b)
	assert.Len(t, a, 128)

	for i, c := range a {
		assert.True(t, c == 1 || c == -1, "chip %d is %d", i, c)
	}
}

func TestGeneratePNDifferentSeeds(t *testing.T) {
	assert.NotEqual(t, GeneratePN(0, 64), GeneratePN(1, 64))
	assert.NotEqual(t, GeneratePN(7, 64), GeneratePN(-7, 64))
}

func TestGeneratePNPrefixStable(t *testing.T) {
	// a longer sequence starts with the shorter one
	assert.Equal(t, GeneratePN(3, 6), GeneratePN(3, 100)[:6])
}

func TestGeneratePNEmpty(t *testing.T) {
	assert.Empty(t, GeneratePN(1, 0))
	assert.Empty(t, GeneratePN(1, -5))
}
