// Package bitutil provides the two low-level structures the decoder builds
// everything else on: a packed 2-D BitMatrix (the sampled module grid) and
// a BitSource (a big-endian bit cursor over a byte slice, used once the
// matrix has been reduced to a codeword stream).
package bitutil

import (
	"fmt"

	"github.com/jalphad/qrvision/qrerror"
)

// BitSource reads successive groups of bits, most significant bit first,
// out of a byte slice. This is how the decoded bitstream (mode indicators,
// character counts, and character data) is consumed.
type BitSource struct {
	bytes      []byte
	byteOffset int
	bitOffset  int // 0-7; 0 means the next read starts at the MSB of bytes[byteOffset]
}

// NewBitSource wraps bytes for bit-at-a-time reading.
func NewBitSource(bytes []byte) *BitSource {
	return &BitSource{bytes: bytes}
}

// Available returns the number of unread bits remaining.
func (s *BitSource) Available() int {
	return 8*(len(s.bytes)-s.byteOffset) - s.bitOffset
}

// ReadBits consumes the next numBits bits (1-32), most significant first,
// and returns them right-justified in the result. It returns
// qrerror.Format if fewer bits remain than requested.
func (s *BitSource) ReadBits(numBits int) (int, error) {
	if numBits < 1 || numBits > 32 || numBits > s.Available() {
		return 0, fmt.Errorf("bitutil: read %d bits with %d available: %w", numBits, s.Available(), qrerror.Format)
	}
	result := 0

	// Partial first byte.
	if s.bitOffset > 0 {
		bitsLeft := 8 - s.bitOffset
		toRead := numBits
		if toRead > bitsLeft {
			toRead = bitsLeft
		}
		bitsToNotRead := bitsLeft - toRead
		mask := (0xFF >> uint(8-toRead)) << uint(bitsToNotRead)
		result = int(s.bytes[s.byteOffset]&byte(mask)) >> uint(bitsToNotRead)
		numBits -= toRead
		s.bitOffset += toRead
		if s.bitOffset == 8 {
			s.bitOffset = 0
			s.byteOffset++
		}
	}

	// Full bytes.
	for numBits >= 8 {
		result = (result << 8) | int(s.bytes[s.byteOffset])
		s.byteOffset++
		numBits -= 8
	}

	// Final partial byte.
	if numBits > 0 {
		bitsToNotRead := 8 - numBits
		mask := (0xFF >> uint(bitsToNotRead)) << uint(bitsToNotRead)
		result = (result << uint(numBits)) | (int(s.bytes[s.byteOffset]&byte(mask)) >> uint(bitsToNotRead))
		s.bitOffset += numBits
	}

	return result, nil
}
