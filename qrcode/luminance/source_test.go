package luminance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsUndersizedBuffer(t *testing.T) {
	_, err := New([]byte{1, 2, 3}, 2, 2)
	assert.Error(t, err)
}

func TestNew_WidthHeight(t *testing.T) {
	s, err := New(make([]byte, 20), 4, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Width())
	assert.Equal(t, 5, s.Height())
}

func TestNewFromRGB_GreyPassthroughWhenEqualChannels(t *testing.T) {
	rgb := []byte{100, 100, 100, 200, 200, 200}
	s, err := NewFromRGB(rgb, 2, 1)
	require.NoError(t, err)
	matrix := s.GetMatrix()
	assert.Equal(t, []byte{100, 200}, matrix)
}

func TestNewFromRGB_WeightedAverageWhenChannelsDiffer(t *testing.T) {
	rgb := []byte{255, 0, 0} // pure red
	s, err := NewFromRGB(rgb, 1, 1)
	require.NoError(t, err)
	want := byte((255 + 0 + 0) / 4)
	assert.Equal(t, want, s.GetMatrix()[0])
}

func TestSource_GetRow(t *testing.T) {
	buf := []byte{
		1, 2, 3,
		4, 5, 6,
	}
	s, err := New(buf, 3, 2)
	require.NoError(t, err)
	row, err := s.GetRow(1, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5, 6}, row)
}

func TestSource_GetRow_OutOfBounds(t *testing.T) {
	s, err := New(make([]byte, 4), 2, 2)
	require.NoError(t, err)
	_, err = s.GetRow(-1, nil)
	assert.Error(t, err)
	_, err = s.GetRow(2, nil)
	assert.Error(t, err)
}

func TestSource_Crop_RestrictsViewAndComposes(t *testing.T) {
	buf := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	}
	s, err := New(buf, 4, 3)
	require.NoError(t, err)

	cropped, err := s.Crop(1, 1, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cropped.Width())
	assert.Equal(t, 2, cropped.Height())
	assert.Equal(t, []byte{6, 7, 10, 11}, cropped.GetMatrix())

	nested, err := cropped.Crop(1, 0, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 11}, nested.GetMatrix())
}

func TestSource_Crop_RejectsOutOfBounds(t *testing.T) {
	s, err := New(make([]byte, 9), 3, 3)
	require.NoError(t, err)
	_, err = s.Crop(2, 2, 2, 2)
	assert.Error(t, err)
}
