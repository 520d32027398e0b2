package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionForNumber_RejectsOutOfRange(t *testing.T) {
	_, err := VersionForNumber(0)
	assert.Error(t, err)
	_, err = VersionForNumber(41)
	assert.Error(t, err)
}

func TestVersionForNumber_DimensionFormula(t *testing.T) {
	for n := 1; n <= 40; n++ {
		v, err := VersionForNumber(n)
		require.NoError(t, err)
		assert.Equal(t, 17+4*n, v.Dimension())
		assert.Equal(t, n, v.Number)
	}
}

func TestProvisionalVersionForDimension_RoundTrips(t *testing.T) {
	for n := 1; n <= 40; n++ {
		dimension := 17 + 4*n
		v, err := ProvisionalVersionForDimension(dimension)
		require.NoError(t, err)
		assert.Equal(t, n, v.Number)
	}
}

func TestProvisionalVersionForDimension_RejectsWrongModulus(t *testing.T) {
	_, err := ProvisionalVersionForDimension(22) // 22%4 == 2
	assert.Error(t, err)
}

func TestEncodeVersionInformation_RoundTripsThroughDecode(t *testing.T) {
	for n := 7; n <= 40; n++ {
		encoded, err := EncodeVersionInformation(n)
		require.NoError(t, err)
		v := DecodeVersionInformation(encoded)
		require.NotNil(t, v, "version %d", n)
		assert.Equal(t, n, v.Number)
	}
}

func TestEncodeVersionInformation_RejectsVersionsBelowSeven(t *testing.T) {
	_, err := EncodeVersionInformation(6)
	assert.Error(t, err)
	_, err = EncodeVersionInformation(41)
	assert.Error(t, err)
}

func TestDecodeVersionInformation_ToleratesBitErrors(t *testing.T) {
	encoded, err := EncodeVersionInformation(20)
	require.NoError(t, err)
	corrupted := encoded ^ 0x7
	v := DecodeVersionInformation(corrupted)
	require.NotNil(t, v)
	assert.Equal(t, 20, v.Number)
}

func TestVersion_ECBlocksForLevel_TotalsMatchTotalCodewords(t *testing.T) {
	for n := 1; n <= 40; n++ {
		v, err := VersionForNumber(n)
		require.NoError(t, err)
		for _, level := range []ECCLevel{ECCLevelL, ECCLevelM, ECCLevelQ, ECCLevelH} {
			blocks := v.ECBlocksForLevel(level)
			total := 0
			for _, blk := range blocks.Blocks {
				total += blk.Count * (blk.DataCodewords + blocks.ECCodewordsPerBlock)
			}
			assert.Equal(t, v.TotalCodewords, total, "version %d level %v", n, level)
		}
	}
}

func TestVersion_BuildFunctionPattern_MarksFinderCorners(t *testing.T) {
	v, err := VersionForNumber(7)
	require.NoError(t, err)
	fp, err := v.BuildFunctionPattern()
	require.NoError(t, err)
	assert.True(t, fp.Get(0, 0))
	assert.True(t, fp.Get(v.Dimension()-1, 0))
	assert.True(t, fp.Get(0, v.Dimension()-1))
	assert.False(t, fp.Get(v.Dimension()-1, v.Dimension()-1), "no finder at bottom-right")
}
