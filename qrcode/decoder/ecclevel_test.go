package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestECCLevel_OrdinalAndBitsRoundTrip(t *testing.T) {
	for _, level := range []ECCLevel{ECCLevelL, ECCLevelM, ECCLevelQ, ECCLevelH} {
		assert.Equal(t, level, eccLevelForBits(level.Bits()))
	}
}

func TestECCLevel_Ordinal_MatchesVersionArrayOrder(t *testing.T) {
	assert.Equal(t, 0, ECCLevelL.Ordinal())
	assert.Equal(t, 1, ECCLevelM.Ordinal())
	assert.Equal(t, 2, ECCLevelQ.Ordinal())
	assert.Equal(t, 3, ECCLevelH.Ordinal())
}

func TestECCLevel_String(t *testing.T) {
	assert.Equal(t, "L", ECCLevelL.String())
	assert.Equal(t, "M", ECCLevelM.String())
	assert.Equal(t, "Q", ECCLevelQ.String())
	assert.Equal(t, "H", ECCLevelH.String())
}

func TestECCLevel_Bits_AreDistinct(t *testing.T) {
	seen := map[int]bool{}
	for _, level := range []ECCLevel{ECCLevelL, ECCLevelM, ECCLevelQ, ECCLevelH} {
		b := level.Bits()
		assert.False(t, seen[b], "duplicate bits value %d", b)
		seen[b] = true
	}
}
