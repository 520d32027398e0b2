package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalphad/qrvision/qrcode/bitutil"
)

func TestNewBitMatrixParser_RejectsBadDimension(t *testing.T) {
	small, err := bitutil.NewSquareBitMatrix(20)
	require.NoError(t, err)
	_, err = NewBitMatrixParser(small)
	assert.Error(t, err)

	wrongModulus, err := bitutil.NewSquareBitMatrix(23) // 23%4==3
	require.NoError(t, err)
	_, err = NewBitMatrixParser(wrongModulus)
	assert.Error(t, err)
}

func TestBitMatrixParser_ReadVersion_DirectForSmallSymbols(t *testing.T) {
	bm, err := bitutil.NewSquareBitMatrix(21) // version 1
	require.NoError(t, err)
	parser, err := NewBitMatrixParser(bm)
	require.NoError(t, err)

	v, err := parser.ReadVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, v.Number)
}

func TestBitMatrixParser_ReadFormatInformation_FromEncodedBits(t *testing.T) {
	bm, err := bitutil.NewSquareBitMatrix(21) // version 1
	require.NoError(t, err)

	encoded, err := EncodeFormatInformation(ECCLevelQ, 3)
	require.NoError(t, err)
	writeFormatBits(bm, 21, encoded)

	parser, err := NewBitMatrixParser(bm)
	require.NoError(t, err)
	fi, err := parser.ReadFormatInformation()
	require.NoError(t, err)
	assert.Equal(t, ECCLevelQ, fi.ECCLevel)
	assert.Equal(t, 3, fi.DataMask)
}

func TestBitMatrixParser_Remask_IsNoOpBeforeReadCodewords(t *testing.T) {
	bm, err := bitutil.NewSquareBitMatrix(21)
	require.NoError(t, err)
	bm.Set(5, 5)
	before := bm.Clone()

	parser, err := NewBitMatrixParser(bm)
	require.NoError(t, err)
	parser.Remask()

	for y := 0; y < 21; y++ {
		for x := 0; x < 21; x++ {
			assert.Equal(t, before.Get(x, y), bm.Get(x, y), "x=%d y=%d", x, y)
		}
	}
}

func TestBitMatrixParser_Remask_UndoesReadCodewordsUnmask(t *testing.T) {
	bm, err := bitutil.NewSquareBitMatrix(21)
	require.NoError(t, err)
	encoded, err := EncodeFormatInformation(ECCLevelL, 0)
	require.NoError(t, err)
	writeFormatBits(bm, 21, encoded)
	before := bm.Clone()

	parser, err := NewBitMatrixParser(bm)
	require.NoError(t, err)
	_, err = parser.ReadCodewords()
	require.NoError(t, err)

	parser.Remask()
	for y := 0; y < 21; y++ {
		for x := 0; x < 21; x++ {
			assert.Equal(t, before.Get(x, y), bm.Get(x, y), "x=%d y=%d", x, y)
		}
	}
}

// writeFormatBits places a 15-bit masked format-info codeword at both
// physical locations, in the same order ReadFormatInformation reads them,
// the same placement internal/testqr's encoder uses.
func writeFormatBits(bm *bitutil.BitMatrix, dimension, formatBits int) {
	bit := func(k int) bool { return (formatBits>>uint(14-k))&1 == 1 }
	set := func(x, y int, dark bool) {
		if dark {
			bm.Set(x, y)
		} else {
			bm.Unset(x, y)
		}
	}

	k := 0
	for i := 0; i < 6; i++ {
		set(i, 8, bit(k))
		k++
	}
	set(7, 8, bit(k))
	k++
	set(8, 8, bit(k))
	k++
	set(8, 7, bit(k))
	k++
	for j := 5; j >= 0; j-- {
		set(8, j, bit(k))
		k++
	}

	k = 0
	jMin := dimension - 7
	for j := dimension - 1; j >= jMin; j-- {
		set(8, j, bit(k))
		k++
	}
	for i := dimension - 8; i < dimension; i++ {
		set(i, 8, bit(k))
		k++
	}
}
