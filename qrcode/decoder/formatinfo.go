package decoder

import (
	"fmt"
	"math/bits"

	"github.com/jalphad/qrvision/qrerror"
)

// FormatInformation is the decoded 5-bit format word: the ECC level used
// for this symbol and which of the 8 data masks was applied.
type FormatInformation struct {
	ECCLevel    ECCLevel
	DataMask    int
}

// formatInfoMaskXOR is the mask XORed into every 15-bit format info
// codeword so that none is all zero (data 00000, level M with mask 0,
// would otherwise encode as 0). formatInfoDecodeLookup holds the masked
// codewords, so words are first matched as read; DecodeFormatInformation
// XORs this mask into them only for its second matching pass.
const formatInfoMaskXOR = 0x5412

// formatInfoDecodeLookup pairs each of the 32 possible 5-bit format values
// with its masked 15-bit BCH(15,5) codeword, per ISO/IEC 18004 Annex C.
var formatInfoDecodeLookup = [32][2]int{
	{0x5412, 0x00}, {0x5125, 0x01}, {0x5E7C, 0x02}, {0x5B4B, 0x03},
	{0x45F9, 0x04}, {0x40CE, 0x05}, {0x4F97, 0x06}, {0x4AA0, 0x07},
	{0x77C4, 0x08}, {0x72F3, 0x09}, {0x7DAA, 0x0A}, {0x789D, 0x0B},
	{0x662F, 0x0C}, {0x6318, 0x0D}, {0x6C41, 0x0E}, {0x6976, 0x0F},
	{0x1689, 0x10}, {0x13BE, 0x11}, {0x1CE7, 0x12}, {0x19D0, 0x13},
	{0x0762, 0x14}, {0x0255, 0x15}, {0x0D0C, 0x16}, {0x083B, 0x17},
	{0x355F, 0x18}, {0x3068, 0x19}, {0x3F31, 0x1A}, {0x3A06, 0x1B},
	{0x24B4, 0x1C}, {0x2183, 0x1D}, {0x2EDA, 0x1E}, {0x2BED, 0x1F},
}

// DecodeFormatInformation finds the best-matching format word among
// maskedFormatInfo1 and maskedFormatInfo2 (the two physical copies read
// from the symbol), accepting a candidate within Hamming distance 3,
// preferring an exact match. Returns nil if neither copy is close to any
// valid codeword.
func DecodeFormatInformation(maskedFormatInfo1, maskedFormatInfo2 int) *FormatInformation {
	if fi := doDecodeFormatInformation(maskedFormatInfo1, maskedFormatInfo2); fi != nil {
		return fi
	}
	return doDecodeFormatInformation(maskedFormatInfo1^formatInfoMaskXOR, maskedFormatInfo2^formatInfoMaskXOR)
}

func doDecodeFormatInformation(maskedFormatInfo1, maskedFormatInfo2 int) *FormatInformation {
	bestDifference := 32
	bestFormatInfo := 0
	for _, pair := range formatInfoDecodeLookup {
		targetedWord, data := pair[0], pair[1]
		if targetedWord == maskedFormatInfo1 || targetedWord == maskedFormatInfo2 {
			return newFormatInformation(data)
		}
		bitsDifference := bits.OnesCount(uint(maskedFormatInfo1 ^ targetedWord))
		if bitsDifference < bestDifference {
			bestFormatInfo = data
			bestDifference = bitsDifference
		}
		if maskedFormatInfo1 != maskedFormatInfo2 {
			bitsDifference = bits.OnesCount(uint(maskedFormatInfo2 ^ targetedWord))
			if bitsDifference < bestDifference {
				bestFormatInfo = data
				bestDifference = bitsDifference
			}
		}
	}
	if bestDifference <= 3 {
		return newFormatInformation(bestFormatInfo)
	}
	return nil
}

// EncodeFormatInformation returns the 15-bit masked BCH codeword for the
// given ECC level and data mask (0-7), the inverse of
// DecodeFormatInformation's lookup. It is used by test fixtures that
// synthesize symbols; production decoding never needs it.
func EncodeFormatInformation(level ECCLevel, maskPattern int) (int, error) {
	if maskPattern < 0 || maskPattern > 7 {
		return 0, fmt.Errorf("decoder: encode format information: mask pattern %d out of range: %w", maskPattern, qrerror.InvalidArgument)
	}
	data := (level.Bits() << 3) | maskPattern
	for _, pair := range formatInfoDecodeLookup {
		if pair[1] == data {
			return pair[0], nil
		}
	}
	return 0, fmt.Errorf("decoder: encode format information: no codeword for data %#x: %w", data, qrerror.InvalidArgument)
}

func newFormatInformation(formatInfo int) *FormatInformation {
	return &FormatInformation{
		ECCLevel: eccLevelForBits((formatInfo >> 3) & 0x3),
		DataMask: formatInfo & 0x7,
	}
}
