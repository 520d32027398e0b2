package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalphad/qrvision/internal/testqr"
	"github.com/jalphad/qrvision/qrcode/binarizer"
	"github.com/jalphad/qrvision/qrcode/decoder"
	"github.com/jalphad/qrvision/qrcode/detector"
	"github.com/jalphad/qrvision/qrcode/luminance"
)

func TestDetect_FindsSymbolInRenderedRaster(t *testing.T) {
	symbol, err := testqr.Encode("detector round trip", decoder.ECCLevelM, 2)
	require.NoError(t, err)

	source, err := testqr.RenderLuminance(symbol, 4, 4)
	require.NoError(t, err)

	bits, err := binarizer.Binarize(source)
	require.NoError(t, err)

	result, err := detector.Detect(bits)
	require.NoError(t, err)
	assert.Equal(t, symbol.Bits.Height(), result.Bits.Height())
	assert.NotNil(t, result.TopLeft)
	assert.NotNil(t, result.TopRight)
	assert.NotNil(t, result.BottomLeft)
}

func TestDetect_NoSymbolIsNotFound(t *testing.T) {
	buf := make([]byte, 60*60)
	for i := range buf {
		buf[i] = 0xFF
	}
	source, err := luminance.New(buf, 60, 60)
	require.NoError(t, err)
	bits, err := binarizer.Binarize(source)
	require.NoError(t, err)

	_, err = detector.Detect(bits)
	assert.Error(t, err)
}
