package testqr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalphad/qrvision/qrcode/decoder"
)

func TestEncode_DimensionMatchesVersion(t *testing.T) {
	symbol, err := Encode("hello", decoder.ECCLevelM, 0)
	require.NoError(t, err)
	v, err := decoder.VersionForNumber(symbol.Version)
	require.NoError(t, err)
	assert.Equal(t, v.Dimension(), symbol.Bits.Height())
	assert.Equal(t, v.Dimension(), symbol.Bits.Width())
}

func TestEncode_FindersAreDrawn(t *testing.T) {
	symbol, err := Encode("x", decoder.ECCLevelL, 0)
	require.NoError(t, err)
	dimension := symbol.Bits.Height()

	// Top-left finder's outer ring corner is always dark.
	assert.True(t, symbol.Bits.Get(0, 0))
	assert.True(t, symbol.Bits.Get(6, 0))
	assert.True(t, symbol.Bits.Get(0, 6))
	// Top-right and bottom-left finders.
	assert.True(t, symbol.Bits.Get(dimension-7, 0))
	assert.True(t, symbol.Bits.Get(0, dimension-7))
	// Separator (always light) just outside the top-left finder.
	assert.False(t, symbol.Bits.Get(7, 0))
}

func TestEncode_DarkModuleIsSet(t *testing.T) {
	symbol, err := Encode("x", decoder.ECCLevelL, 0)
	require.NoError(t, err)
	dimension := symbol.Bits.Height()
	assert.True(t, symbol.Bits.Get(8, dimension-8))
}

func TestEncode_PicksSmallestFittingVersion(t *testing.T) {
	short, err := Encode("hi", decoder.ECCLevelL, 0)
	require.NoError(t, err)
	long, err := Encode(stringOfLength(200), decoder.ECCLevelL, 0)
	require.NoError(t, err)
	assert.Less(t, short.Version, long.Version)
}

func TestEncode_TooLongForAnyVersionIsError(t *testing.T) {
	_, err := Encode(stringOfLength(5000), decoder.ECCLevelH, 0)
	assert.Error(t, err)
}

func TestEncode_RejectsOutOfRangeMask(t *testing.T) {
	_, err := Encode("x", decoder.ECCLevelL, 8)
	assert.Error(t, err)
}

func stringOfLength(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + i%26)
	}
	return string(b)
}
