package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFormatInformation_RoundTripsThroughDecode(t *testing.T) {
	for _, level := range []ECCLevel{ECCLevelL, ECCLevelM, ECCLevelQ, ECCLevelH} {
		for mask := 0; mask < 8; mask++ {
			encoded, err := EncodeFormatInformation(level, mask)
			require.NoError(t, err)

			decoded := DecodeFormatInformation(encoded, encoded)
			require.NotNil(t, decoded, "level=%v mask=%d", level, mask)
			assert.Equal(t, level, decoded.ECCLevel)
			assert.Equal(t, mask, decoded.DataMask)
		}
	}
}

func TestEncodeFormatInformation_RejectsOutOfRangeMask(t *testing.T) {
	_, err := EncodeFormatInformation(ECCLevelM, -1)
	assert.Error(t, err)
	_, err = EncodeFormatInformation(ECCLevelM, 8)
	assert.Error(t, err)
}

func TestDecodeFormatInformation_ToleratesUpToThreeBitErrors(t *testing.T) {
	encoded, err := EncodeFormatInformation(ECCLevelH, 5)
	require.NoError(t, err)
	corrupted := encoded ^ 0x7 // flip 3 low bits
	decoded := DecodeFormatInformation(corrupted, corrupted)
	require.NotNil(t, decoded)
	assert.Equal(t, ECCLevelH, decoded.ECCLevel)
	assert.Equal(t, 5, decoded.DataMask)
}

func TestDecodeFormatInformation_NilWhenTooCorrupted(t *testing.T) {
	// 0x000F and 0x001E are each at Hamming distance 4 or more from every
	// codeword, both as read and with formatInfoMaskXOR applied.
	decoded := DecodeFormatInformation(0x000F, 0x001E)
	assert.Nil(t, decoded)
}

func TestDecodeFormatInformation_PrefersExactMatch(t *testing.T) {
	for _, pair := range formatInfoDecodeLookup {
		decoded := DecodeFormatInformation(pair[0], pair[0])
		require.NotNil(t, decoded)
		assert.Equal(t, pair[1]&0x7, decoded.DataMask)
	}
}
