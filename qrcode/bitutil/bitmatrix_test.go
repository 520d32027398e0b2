package bitutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBitMatrix_RejectsNonPositiveDimensions(t *testing.T) {
	_, err := NewBitMatrix(0, 5)
	assert.Error(t, err)
	_, err = NewBitMatrix(5, -1)
	assert.Error(t, err)
}

func TestBitMatrix_SetGetUnset(t *testing.T) {
	m, err := NewSquareBitMatrix(10)
	require.NoError(t, err)
	assert.False(t, m.Get(3, 4))
	m.Set(3, 4)
	assert.True(t, m.Get(3, 4))
	m.Unset(3, 4)
	assert.False(t, m.Get(3, 4))
}

func TestBitMatrix_Flip(t *testing.T) {
	m, err := NewSquareBitMatrix(5)
	require.NoError(t, err)
	m.Flip(1, 1)
	assert.True(t, m.Get(1, 1))
	m.Flip(1, 1)
	assert.False(t, m.Get(1, 1))
}

func TestBitMatrix_FlipAll(t *testing.T) {
	m, err := NewSquareBitMatrix(33) // crosses a word boundary
	require.NoError(t, err)
	m.Set(0, 0)
	m.FlipAll()
	assert.False(t, m.Get(0, 0))
	assert.True(t, m.Get(1, 0))
	assert.True(t, m.Get(32, 32))
}

func TestBitMatrix_SetRegion(t *testing.T) {
	m, err := NewSquareBitMatrix(10)
	require.NoError(t, err)
	require.NoError(t, m.SetRegion(2, 3, 4, 2))
	for y := 3; y < 5; y++ {
		for x := 2; x < 6; x++ {
			assert.True(t, m.Get(x, y), "x=%d y=%d", x, y)
		}
	}
	assert.False(t, m.Get(1, 3))
	assert.False(t, m.Get(6, 3))
}

func TestBitMatrix_SetRegion_OutOfBoundsIsInvalidArgument(t *testing.T) {
	m, err := NewSquareBitMatrix(10)
	require.NoError(t, err)
	assert.Error(t, m.SetRegion(8, 8, 5, 5))
	assert.Error(t, m.SetRegion(-1, 0, 2, 2))
}

func TestBitMatrix_Mirror_Transposes(t *testing.T) {
	m, err := NewBitMatrix(4, 4)
	require.NoError(t, err)
	m.Set(1, 3)
	m.Mirror()
	assert.True(t, m.Get(3, 1))
	assert.False(t, m.Get(1, 3))
}

func TestBitMatrix_Clone_IsIndependent(t *testing.T) {
	m, err := NewSquareBitMatrix(5)
	require.NoError(t, err)
	m.Set(2, 2)
	clone := m.Clone()
	clone.Set(0, 0)
	assert.False(t, m.Get(0, 0))
	assert.True(t, clone.Get(2, 2))
}

func TestBitMatrix_Unmask_SkipsFunctionCells(t *testing.T) {
	m, err := NewSquareBitMatrix(8)
	require.NoError(t, err)
	function, err := NewSquareBitMatrix(8)
	require.NoError(t, err)
	function.Set(0, 0)

	err = m.Unmask(0, function) // mask 0: (i+j)%2==0
	require.NoError(t, err)
	assert.False(t, m.Get(0, 0), "function cell must not flip")
	assert.True(t, m.Get(2, 0), "non-function cell with (0+2)%2==0 should flip")
}

func TestBitMatrix_Unmask_FlipsPerMaskPredicate(t *testing.T) {
	m, err := NewSquareBitMatrix(4)
	require.NoError(t, err)
	err = m.Unmask(1, nil) // mask 1: i%2==0 (i is row/y)
	require.NoError(t, err)
	assert.True(t, m.Get(0, 0))
	assert.True(t, m.Get(3, 0))
	assert.False(t, m.Get(0, 1))
}

func TestBitMatrix_Unmask_IsSelfInverse(t *testing.T) {
	m, err := NewSquareBitMatrix(21)
	require.NoError(t, err)
	m.Set(3, 4)
	m.Set(10, 10)
	before := m.Clone()

	require.NoError(t, m.Unmask(3, nil))
	require.NoError(t, m.Unmask(3, nil))

	for y := 0; y < 21; y++ {
		for x := 0; x < 21; x++ {
			assert.Equal(t, before.Get(x, y), m.Get(x, y), "x=%d y=%d", x, y)
		}
	}
}

func TestBitMatrix_Unmask_RejectsOutOfRangePattern(t *testing.T) {
	m, err := NewSquareBitMatrix(4)
	require.NoError(t, err)
	assert.Error(t, m.Unmask(8, nil))
	assert.Error(t, m.Unmask(-1, nil))
}
