package binarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalphad/qrvision/qrcode/luminance"
)

func checkerboard(width, height, block int) []byte {
	buf := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if ((x/block)+(y/block))%2 == 0 {
				buf[y*width+x] = 0x10
			} else {
				buf[y*width+x] = 0xF0
			}
		}
	}
	return buf
}

func TestBinarize_SmallImageUsesHistogramPath(t *testing.T) {
	source, err := luminance.New(checkerboard(30, 30, 5), 30, 30)
	require.NoError(t, err)
	bits, err := Binarize(source)
	require.NoError(t, err)
	assert.Equal(t, 30, bits.Width())
	assert.True(t, bits.Get(0, 0), "dark block should be set")
	assert.False(t, bits.Get(6, 0), "light block should be unset")
}

func TestBinarize_LargeImageUsesBlockPath(t *testing.T) {
	source, err := luminance.New(checkerboard(80, 80, 8), 80, 80)
	require.NoError(t, err)
	bits, err := Binarize(source)
	require.NoError(t, err)
	assert.Equal(t, 80, bits.Width())
	assert.True(t, bits.Get(0, 0))
	assert.False(t, bits.Get(9, 0))
}

func TestBinarize_UniformImageHasNoCrash(t *testing.T) {
	buf := make([]byte, 50*50)
	for i := range buf {
		buf[i] = 0x80
	}
	source, err := luminance.New(buf, 50, 50)
	require.NoError(t, err)
	_, err = Binarize(source)
	require.NoError(t, err)
}
