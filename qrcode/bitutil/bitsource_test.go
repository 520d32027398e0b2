package bitutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitSource_ReadBits_FullBytes(t *testing.T) {
	s := NewBitSource([]byte{0xAB, 0xCD})
	v, err := s.ReadBits(8)
	require.NoError(t, err)
	assert.Equal(t, 0xAB, v)
	v, err = s.ReadBits(8)
	require.NoError(t, err)
	assert.Equal(t, 0xCD, v)
}

func TestBitSource_ReadBits_CrossesByteBoundary(t *testing.T) {
	// 0xAB = 1010 1011, 0xCD = 1100 1101
	s := NewBitSource([]byte{0xAB, 0xCD})
	v, err := s.ReadBits(4)
	require.NoError(t, err)
	assert.Equal(t, 0xA, v)
	v, err = s.ReadBits(8)
	require.NoError(t, err)
	assert.Equal(t, 0xBC, v)
	v, err = s.ReadBits(4)
	require.NoError(t, err)
	assert.Equal(t, 0xD, v)
}

func TestBitSource_ReadBits_SingleBits(t *testing.T) {
	s := NewBitSource([]byte{0x80}) // 1000 0000
	for i, want := range []int{1, 0, 0, 0, 0, 0, 0, 0} {
		v, err := s.ReadBits(1)
		require.NoError(t, err)
		assert.Equal(t, want, v, "bit %d", i)
	}
}

func TestBitSource_Available(t *testing.T) {
	s := NewBitSource([]byte{0x00, 0x00})
	assert.Equal(t, 16, s.Available())
	_, err := s.ReadBits(5)
	require.NoError(t, err)
	assert.Equal(t, 11, s.Available())
}

func TestBitSource_ReadBits_ExhaustedReturnsFormatError(t *testing.T) {
	s := NewBitSource([]byte{0xFF})
	_, err := s.ReadBits(8)
	require.NoError(t, err)
	_, err = s.ReadBits(1)
	assert.Error(t, err)
}

func TestBitSource_ReadBits_RejectsOutOfRangeCounts(t *testing.T) {
	s := NewBitSource([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	_, err := s.ReadBits(0)
	assert.Error(t, err)
	_, err = s.ReadBits(33)
	assert.Error(t, err)
}
