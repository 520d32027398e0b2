package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalphad/qrvision/gf"
	"github.com/jalphad/qrvision/gfpoly"
)

// encodeRS builds a systematic Reed-Solomon codeword (data followed by
// ecCount parity bytes), independent of the reedsolomon package's own
// test helper, so CorrectAndConcatenate has a real codeword to correct.
func encodeRS(t *testing.T, data []byte, ecCount int) []byte {
	t.Helper()
	field := gf.NewQRCodeField()
	generator, err := gfpoly.NewPolynomial(field, []byte{1})
	require.NoError(t, err)
	for d := 0; d < ecCount; d++ {
		term, err := gfpoly.NewPolynomial(field, []byte{1, field.Exp(d)})
		require.NoError(t, err)
		generator, err = generator.Multiply(term)
		require.NoError(t, err)
	}
	shifted := make([]byte, len(data)+ecCount)
	copy(shifted, data)
	infoPoly, err := gfpoly.NewPolynomial(field, shifted)
	require.NoError(t, err)
	_, remainder, err := infoPoly.Divide(generator)
	require.NoError(t, err)

	codeword := make([]byte, len(data)+ecCount)
	copy(codeword, data)
	coeffs := remainder.Coefficients()
	copy(codeword[len(codeword)-len(coeffs):], coeffs)
	return codeword
}

// interleave reproduces the column-major interleaving ISO/IEC 18004
// prescribes (all data codewords first, then the last ecCount codewords of
// each block), independently of GetDataBlocks, so this test can verify the
// two sides agree on the wire format instead of just testing GetDataBlocks
// against itself.
func interleave(blocks [][]byte, ecCount int) []byte {
	maxLen := 0
	for _, b := range blocks {
		if len(b) > maxLen {
			maxLen = len(b)
		}
	}
	var result []byte
	for col := 0; col < maxLen-ecCount; col++ {
		for _, b := range blocks {
			if col < len(b)-ecCount {
				result = append(result, b[col])
			}
		}
	}
	for col := 0; col < ecCount; col++ {
		for _, b := range blocks {
			result = append(result, b[len(b)-ecCount+col])
		}
	}
	return result
}

func TestGetDataBlocks_SingleBlockVersion(t *testing.T) {
	v, err := VersionForNumber(1)
	require.NoError(t, err)
	raw := make([]byte, v.TotalCodewords)
	for i := range raw {
		raw[i] = byte(i)
	}

	blocks, err := GetDataBlocks(raw, v, ECCLevelL)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, raw, blocks[0].Codewords())
	assert.Equal(t, 19, blocks[0].NumDataCodewords())
}

func TestGetDataBlocks_UnevenGroupsDeinterleaveCorrectly(t *testing.T) {
	// Version 5, level Q: eb(18, b(2,15), b(2,16)) - two groups of unequal
	// data length sharing one EC length.
	v, err := VersionForNumber(5)
	require.NoError(t, err)
	ecBlocks := v.ECBlocksForLevel(ECCLevelQ)

	var want [][]byte
	value := byte(1)
	for _, group := range ecBlocks.Blocks {
		for i := 0; i < group.Count; i++ {
			block := make([]byte, group.DataCodewords+ecBlocks.ECCodewordsPerBlock)
			for j := range block {
				block[j] = value
				value++
			}
			want = append(want, block)
		}
	}

	raw := interleave(want, ecBlocks.ECCodewordsPerBlock)
	require.Len(t, raw, v.TotalCodewords)

	got, err := GetDataBlocks(raw, v, ECCLevelQ)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i, blk := range got {
		assert.Equal(t, want[i], blk.Codewords(), "block %d", i)
	}
}

func TestGetDataBlocks_WrongLengthIsFormatError(t *testing.T) {
	v, err := VersionForNumber(1)
	require.NoError(t, err)
	_, err = GetDataBlocks(make([]byte, 5), v, ECCLevelL)
	assert.Error(t, err)
}

func TestCorrectAndConcatenate_SingleBlockRecoversData(t *testing.T) {
	v, err := VersionForNumber(1)
	require.NoError(t, err)
	ecBlocks := v.ECBlocksForLevel(ECCLevelH) // single block, 9 data + 17 ec

	data := make([]byte, ecBlocks.Blocks[0].DataCodewords)
	for i := range data {
		data[i] = byte(i + 1)
	}
	raw := encodeRS(t, data, ecBlocks.ECCodewordsPerBlock)
	require.Len(t, raw, v.TotalCodewords)

	blocks, err := GetDataBlocks(raw, v, ECCLevelH)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	recovered, err := CorrectAndConcatenate(blocks, ecBlocks.ECCodewordsPerBlock)
	require.NoError(t, err)
	assert.Equal(t, data, recovered)
}

func TestCorrectAndConcatenate_MultiBlockConcatenatesInBlockOrder(t *testing.T) {
	v, err := VersionForNumber(5)
	require.NoError(t, err)
	ecBlocks := v.ECBlocksForLevel(ECCLevelQ)

	var dataBlocks [][]byte
	var codewordBlocks [][]byte
	value := byte(1)
	for _, group := range ecBlocks.Blocks {
		for i := 0; i < group.Count; i++ {
			data := make([]byte, group.DataCodewords)
			for j := range data {
				data[j] = value
				value++
			}
			dataBlocks = append(dataBlocks, data)
			codewordBlocks = append(codewordBlocks, encodeRS(t, data, ecBlocks.ECCodewordsPerBlock))
		}
	}

	raw := interleave(codewordBlocks, ecBlocks.ECCodewordsPerBlock)
	require.Len(t, raw, v.TotalCodewords)

	blocks, err := GetDataBlocks(raw, v, ECCLevelQ)
	require.NoError(t, err)

	recovered, err := CorrectAndConcatenate(blocks, ecBlocks.ECCodewordsPerBlock)
	require.NoError(t, err)

	var want []byte
	for _, d := range dataBlocks {
		want = append(want, d...)
	}
	assert.Equal(t, want, recovered)
}
