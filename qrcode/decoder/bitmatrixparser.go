package decoder

import (
	"fmt"

	"github.com/jalphad/qrvision/qrcode/bitutil"
	"github.com/jalphad/qrvision/qrerror"
)

// BitMatrixParser extracts format information, version information, and
// the raw codeword stream from a sampled bit matrix. It supports a mirror
// mode: when a symbol was photographed through a reflective surface, the
// matrix reads correctly only after transposing row/column addressing,
// which SetMirror toggles without needing to physically transpose the
// matrix itself.
type BitMatrixParser struct {
	bitMatrix        *bitutil.BitMatrix
	parsedVersion    *Version
	parsedFormatInfo *FormatInformation
	mirror           bool
}

// NewBitMatrixParser validates the matrix dimension (must be >= 21 and
// congruent to 1 mod 4, per ISO/IEC 18004's version/size formula) and
// wraps it for parsing.
func NewBitMatrixParser(bm *bitutil.BitMatrix) (*BitMatrixParser, error) {
	dimension := bm.Height()
	if dimension < 21 || dimension&0x03 != 1 {
		return nil, fmt.Errorf("decoder: new bit matrix parser: dimension %d invalid: %w", dimension, qrerror.Format)
	}
	return &BitMatrixParser{bitMatrix: bm}, nil
}

// SetMirror toggles mirror addressing and discards any cached
// format/version info parsed under the previous mode.
func (p *BitMatrixParser) SetMirror(mirror bool) {
	p.mirror = mirror
	p.parsedVersion = nil
	p.parsedFormatInfo = nil
}

// copyBit reads bit (i, j) - transposed when mirroring - and shifts it
// into the low end of bitsSoFar.
func (p *BitMatrixParser) copyBit(i, j, bitsSoFar int) int {
	var bit bool
	if p.mirror {
		bit = p.bitMatrix.Get(j, i)
	} else {
		bit = p.bitMatrix.Get(i, j)
	}
	if bit {
		return (bitsSoFar << 1) | 0x1
	}
	return bitsSoFar << 1
}

// ReadFormatInformation reads and decodes the two physical copies of the
// 15-bit format info word (around the top-left finder, and split across
// the top-right and bottom-left finders).
func (p *BitMatrixParser) ReadFormatInformation() (*FormatInformation, error) {
	if p.parsedFormatInfo != nil {
		return p.parsedFormatInfo, nil
	}

	formatInfoBits1 := 0
	for i := 0; i < 6; i++ {
		formatInfoBits1 = p.copyBit(i, 8, formatInfoBits1)
	}
	formatInfoBits1 = p.copyBit(7, 8, formatInfoBits1)
	formatInfoBits1 = p.copyBit(8, 8, formatInfoBits1)
	formatInfoBits1 = p.copyBit(8, 7, formatInfoBits1)
	for j := 5; j >= 0; j-- {
		formatInfoBits1 = p.copyBit(8, j, formatInfoBits1)
	}

	dimension := p.bitMatrix.Height()
	formatInfoBits2 := 0
	jMin := dimension - 7
	for j := dimension - 1; j >= jMin; j-- {
		formatInfoBits2 = p.copyBit(8, j, formatInfoBits2)
	}
	for i := dimension - 8; i < dimension; i++ {
		formatInfoBits2 = p.copyBit(i, 8, formatInfoBits2)
	}

	parsedFormatInfo := DecodeFormatInformation(formatInfoBits1, formatInfoBits2)
	if parsedFormatInfo == nil {
		return nil, fmt.Errorf("decoder: read format information: neither copy within hamming distance 3 of a valid codeword: %w", qrerror.Format)
	}
	p.parsedFormatInfo = parsedFormatInfo
	return parsedFormatInfo, nil
}

// ReadVersion reads and decodes the version. For dimension <= 6*4+17 the
// version follows directly from the dimension; larger symbols carry
// explicit 18-bit version-info words that must be BCH-decoded.
func (p *BitMatrixParser) ReadVersion() (*Version, error) {
	if p.parsedVersion != nil {
		return p.parsedVersion, nil
	}

	dimension := p.bitMatrix.Height()
	provisionalVersion := (dimension - 17) / 4
	if provisionalVersion <= 6 {
		v, err := VersionForNumber(provisionalVersion)
		if err == nil {
			p.parsedVersion = v
			return v, nil
		}
	}

	ijMin := dimension - 11
	versionBits := 0
	for j := 5; j >= 0; j-- {
		for i := dimension - 9; i >= ijMin; i-- {
			versionBits = p.copyBit(i, j, versionBits)
		}
	}
	if v := DecodeVersionInformation(versionBits); v != nil && v.Dimension() == dimension {
		p.parsedVersion = v
		return v, nil
	}

	versionBits = 0
	for i := 5; i >= 0; i-- {
		for j := dimension - 9; j >= ijMin; j-- {
			versionBits = p.copyBit(i, j, versionBits)
		}
	}
	if v := DecodeVersionInformation(versionBits); v != nil && v.Dimension() == dimension {
		p.parsedVersion = v
		return v, nil
	}

	return nil, fmt.Errorf("decoder: read version: no candidate version matches dimension %d: %w", dimension, qrerror.Format)
}

// Remask flips the modules selected by the cached format info's data mask
// once more. After ReadCodewords this re-applies the mask it removed in
// place, restoring the matrix to its as-sampled state, since flipping is
// self-inverse. It is a no-op while no format info is cached; it does not
// check whether ReadCodewords ran. Call this before SetMirror when
// retrying a failed straight-addressing attempt with mirror addressing.
func (p *BitMatrixParser) Remask() {
	if p.parsedFormatInfo == nil {
		return
	}
	p.unmaskBitMatrix(p.parsedFormatInfo.DataMask, p.bitMatrix.Height())
}

// unmaskBitMatrix flips every module the given data mask predicate
// selects, per ISO/IEC 18004 Table 10, with row and column swapped in
// mirror mode. Function-pattern cells are flipped
// too (they were never subject to masking during encoding) since
// ReadCodewords skips them when collecting bits, matching what the
// reference decoders do.
func (p *BitMatrixParser) unmaskBitMatrix(maskPattern, dimension int) {
	mask := bitutil.MaskPatterns[maskPattern]
	for i := 0; i < dimension; i++ {
		for j := 0; j < dimension; j++ {
			if mask(i, j) && p.mirror {
				p.bitMatrix.Flip(i, j)
			} else if mask(i, j) {
				p.bitMatrix.Flip(j, i)
			}
		}
	}
}

// ReadCodewords unmasks the matrix, then traverses it in the zig-zag
// right-to-left column-pair order ISO/IEC 18004 specifies, skipping
// function-pattern modules, and packs the remaining bits MSB-first into
// bytes. In mirror mode modules are read with row and column swapped.
func (p *BitMatrixParser) ReadCodewords() ([]byte, error) {
	formatInfo, err := p.ReadFormatInformation()
	if err != nil {
		return nil, fmt.Errorf("decoder: read codewords: %w", err)
	}
	version, err := p.ReadVersion()
	if err != nil {
		return nil, fmt.Errorf("decoder: read codewords: %w", err)
	}

	dimension := version.Dimension()
	p.unmaskBitMatrix(formatInfo.DataMask, dimension)

	functionPattern, err := version.BuildFunctionPattern()
	if err != nil {
		return nil, fmt.Errorf("decoder: read codewords: %w", err)
	}

	result := make([]byte, 0, version.TotalCodewords)
	currentByte := 0
	bitsRead := 0
	readingUp := true

	for j := dimension - 1; j > 0; j -= 2 {
		if j == 6 {
			j = 5
		}
		for count := 0; count < dimension; count++ {
			var i int
			if readingUp {
				i = dimension - 1 - count
			} else {
				i = count
			}
			for col := 0; col < 2; col++ {
				x := j - col
				if functionPattern.Get(x, i) {
					continue
				}
				bitsRead++
				currentByte <<= 1
				bit := p.bitMatrix.Get(x, i)
				if p.mirror {
					bit = p.bitMatrix.Get(i, x)
				}
				if bit {
					currentByte |= 1
				}
				if bitsRead == 8 {
					result = append(result, byte(currentByte))
					bitsRead = 0
					currentByte = 0
				}
			}
		}
		readingUp = !readingUp
	}

	if len(result) != version.TotalCodewords {
		return nil, fmt.Errorf("decoder: read codewords: got %d, expected %d: %w", len(result), version.TotalCodewords, qrerror.Format)
	}
	return result, nil
}
