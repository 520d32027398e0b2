// Package testqr synthesizes QR code bit matrices (and greyscale rasters)
// for use as fixtures in this module's own tests. It implements just
// enough of the encoder side — byte mode only, no structured append, no
// ECI — to produce symbols this module's decoder can read back; it is
// not a general-purpose QR encoder.
package testqr

import (
	"github.com/jalphad/qrvision/gf"
	"github.com/jalphad/qrvision/gfpoly"
	"github.com/jalphad/qrvision/qrcode/bitutil"
	"github.com/jalphad/qrvision/qrcode/decoder"
	"github.com/jalphad/qrvision/qrcode/luminance"
	"github.com/jalphad/qrvision/qrerror"
)

// Symbol is a synthesized QR code: the module grid plus the parameters
// it was built with, for test assertions.
type Symbol struct {
	Bits        *bitutil.BitMatrix
	Version     int
	ECCLevel    decoder.ECCLevel
	MaskPattern int
	Text        string
}

// Encode builds the smallest symbol (version 1-40) at the given ECC
// level and mask pattern that can carry text in byte mode. It returns
// qrerror.InvalidArgument if text is too long for any version at that
// level.
func Encode(text string, level decoder.ECCLevel, maskPattern int) (*Symbol, error) {
	data := []byte(text)

	var version *decoder.Version
	for n := 1; n <= 40; n++ {
		v, err := decoder.VersionForNumber(n)
		if err != nil {
			return nil, err
		}
		countBits := byteCountBits(n)
		totalDataBits := 4 + countBits + len(data)*8
		capacityBits := (v.TotalCodewords - v.ECBlocksForLevel(level).TotalECCodewords()) * 8
		if totalDataBits <= capacityBits {
			version = v
			break
		}
	}
	if version == nil {
		return nil, qrerror.InvalidArgument
	}

	dataCodewords, err := buildDataCodewords(data, version, level)
	if err != nil {
		return nil, err
	}

	field := gf.NewQRCodeField()
	ecBlocks := version.ECBlocksForLevel(level)
	blockCodewords, err := encodeBlocks(field, dataCodewords, ecBlocks)
	if err != nil {
		return nil, err
	}
	dataParts := make([][]byte, len(blockCodewords))
	ecParts := make([][]byte, len(blockCodewords))
	for i, b := range blockCodewords {
		n := len(b) - ecBlocks.ECCodewordsPerBlock
		dataParts[i], ecParts[i] = b[:n], b[n:]
	}
	rawCodewords := append(interleave(dataParts), interleave(ecParts)...)

	bm, functionPattern, err := drawFunctionPatterns(version, level, maskPattern)
	if err != nil {
		return nil, err
	}
	if err := placeCodewords(bm, functionPattern, rawCodewords); err != nil {
		return nil, err
	}
	if err := bm.Unmask(maskPattern, functionPattern); err != nil {
		return nil, err
	}

	return &Symbol{Bits: bm, Version: version.Number, ECCLevel: level, MaskPattern: maskPattern, Text: text}, nil
}

// byteCountBits returns the character-count field width for byte mode at
// version n, per ISO/IEC 18004 Table 3: 8 bits for versions 1-9, 16 bits
// otherwise.
func byteCountBits(n int) int {
	if n <= 9 {
		return 8
	}
	return 16
}

// buildDataCodewords assembles the mode-indicator-prefixed bit stream
// (byte mode only), terminates it, pads to a byte boundary, and fills
// the remaining data capacity with the standard 0xEC/0x11 pad bytes.
func buildDataCodewords(data []byte, version *decoder.Version, level decoder.ECCLevel) ([]byte, error) {
	capacityBytes := version.TotalCodewords - version.ECBlocksForLevel(level).TotalECCodewords()
	capacityBits := capacityBytes * 8

	var bits []bool
	putBits := func(value, length int) {
		for i := length - 1; i >= 0; i-- {
			bits = append(bits, (value>>uint(i))&1 == 1)
		}
	}

	putBits(0x4, 4) // byte mode
	putBits(len(data), byteCountBits(version.Number))
	for _, b := range data {
		putBits(int(b), 8)
	}

	if len(bits) > capacityBits {
		return nil, qrerror.InvalidArgument
	}
	term := 4
	if len(bits)+term > capacityBits {
		term = capacityBits - len(bits)
	}
	for i := 0; i < term; i++ {
		bits = append(bits, false)
	}
	for len(bits)%8 != 0 {
		bits = append(bits, false)
	}

	padBytes := [2]byte{0xEC, 0x11}
	padIdx := 0
	for len(bits) < capacityBits {
		putBits(int(padBytes[padIdx]), 8)
		padIdx = (padIdx + 1) % 2
	}

	codewords := make([]byte, capacityBytes)
	for i := range codewords {
		var v byte
		for j := 0; j < 8; j++ {
			if bits[i*8+j] {
				v |= 1 << uint(7-j)
			}
		}
		codewords[i] = v
	}
	return codewords, nil
}

// encodeBlocks splits dataCodewords across ecBlocks' groups and appends
// each block's Reed-Solomon error-correction codewords.
func encodeBlocks(field *gf.Field, dataCodewords []byte, ecBlocks *decoder.ECBlocks) ([][]byte, error) {
	generator, err := buildGenerator(field, ecBlocks.ECCodewordsPerBlock)
	if err != nil {
		return nil, err
	}

	var result [][]byte
	offset := 0
	for _, group := range ecBlocks.Blocks {
		for i := 0; i < group.Count; i++ {
			blockData := dataCodewords[offset : offset+group.DataCodewords]
			offset += group.DataCodewords

			ec, err := encodeECC(field, generator, blockData, ecBlocks.ECCodewordsPerBlock)
			if err != nil {
				return nil, err
			}
			block := make([]byte, 0, len(blockData)+len(ec))
			block = append(block, blockData...)
			block = append(block, ec...)
			result = append(result, block)
		}
	}
	return result, nil
}

func buildGenerator(field *gf.Field, degree int) (*gfpoly.Polynomial, error) {
	g, err := gfpoly.NewPolynomial(field, []byte{1})
	if err != nil {
		return nil, err
	}
	for d := 0; d < degree; d++ {
		term, err := gfpoly.NewPolynomial(field, []byte{1, field.Exp(d)})
		if err != nil {
			return nil, err
		}
		g, err = g.Multiply(term)
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

// encodeECC computes the Reed-Solomon remainder of blockData * x^ecCount
// divided by generator, the standard systematic RS encoding used to
// produce a block's error-correction codewords.
func encodeECC(field *gf.Field, generator *gfpoly.Polynomial, blockData []byte, ecCount int) ([]byte, error) {
	infoCoefficients := make([]byte, len(blockData)+ecCount)
	copy(infoCoefficients, blockData)
	infoPoly, err := gfpoly.NewPolynomial(field, infoCoefficients)
	if err != nil {
		return nil, err
	}
	_, remainder, err := infoPoly.Divide(generator)
	if err != nil {
		return nil, err
	}

	ec := make([]byte, ecCount)
	coeffs := remainder.Coefficients()
	if coeffs[0] == 0 && len(coeffs) == 1 {
		return ec, nil
	}
	copy(ec[ecCount-len(coeffs):], coeffs)
	return ec, nil
}

// interleave reads per-block codeword slices column-major across all
// blocks, the standard ISO/IEC 18004 interleaving scheme: shared-length
// columns first (every block has one), then any column only the longer
// blocks reach. Encode applies it to the data portions and then to the
// error-correction portions.
func interleave(blocks [][]byte) []byte {
	maxLen := 0
	for _, b := range blocks {
		if len(b) > maxLen {
			maxLen = len(b)
		}
	}
	result := make([]byte, 0, maxLen*len(blocks))
	for col := 0; col < maxLen; col++ {
		for _, b := range blocks {
			if col < len(b) {
				result = append(result, b[col])
			}
		}
	}
	return result
}

// drawFunctionPatterns draws the finder, separator, alignment, timing,
// dark-module, format-info, and (for version > 6) version-info patterns
// into a freshly allocated matrix, and returns the function-pattern mask
// alongside it so the caller can skip those cells when placing data.
func drawFunctionPatterns(version *decoder.Version, level decoder.ECCLevel, maskPattern int) (*bitutil.BitMatrix, *bitutil.BitMatrix, error) {
	dimension := version.Dimension()
	bm, err := bitutil.NewSquareBitMatrix(dimension)
	if err != nil {
		return nil, nil, err
	}
	functionPattern, err := version.BuildFunctionPattern()
	if err != nil {
		return nil, nil, err
	}

	drawFinderPattern(bm, 0, 0)
	drawFinderPattern(bm, dimension-7, 0)
	drawFinderPattern(bm, 0, dimension-7)

	drawAlignmentPatterns(bm, version)
	drawTimingPatterns(bm, dimension)

	bm.Set(8, dimension-8) // dark module

	formatBits, err := decoder.EncodeFormatInformation(level, maskPattern)
	if err != nil {
		return nil, nil, err
	}
	drawFormatInformation(bm, dimension, formatBits)

	if version.Number > 6 {
		versionBits, err := decoder.EncodeVersionInformation(version.Number)
		if err != nil {
			return nil, nil, err
		}
		drawVersionInformation(bm, dimension, versionBits)
	}

	return bm, functionPattern, nil
}

// drawFinderPattern draws the 7x7 finder pattern (outer dark ring,
// white ring, dark 3x3 core) with its top-left corner at (left, top).
func drawFinderPattern(bm *bitutil.BitMatrix, left, top int) {
	for i := 0; i < 7; i++ {
		for j := 0; j < 7; j++ {
			dark := i == 0 || i == 6 || j == 0 || j == 6 || (i >= 2 && i <= 4 && j >= 2 && j <= 4)
			if dark {
				bm.Set(left+j, top+i)
			}
		}
	}
}

// drawAlignmentPatterns draws the 5x5 alignment patterns (dark ring,
// white ring, single dark center module) at every combination of the
// version's alignment centers, skipping the three corners that overlap
// a finder pattern.
func drawAlignmentPatterns(bm *bitutil.BitMatrix, version *decoder.Version) {
	centers := version.AlignmentPatternCenters
	n := len(centers)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			if (x == 0 && (y == 0 || y == n-1)) || (x == n-1 && y == 0) {
				continue
			}
			cx, cy := centers[x], centers[y]
			for i := -2; i <= 2; i++ {
				for j := -2; j <= 2; j++ {
					dark := i == -2 || i == 2 || j == -2 || j == 2 || (i == 0 && j == 0)
					if dark {
						bm.Set(cx+j, cy+i)
					}
				}
			}
		}
	}
}

// drawTimingPatterns draws the alternating dark/light timing strips
// along row 6 and column 6 between the two separator gaps.
func drawTimingPatterns(bm *bitutil.BitMatrix, dimension int) {
	for i := 8; i < dimension-8; i++ {
		if i%2 == 0 {
			bm.Set(i, 6)
			bm.Set(6, i)
		}
	}
}

// drawFormatInformation writes formatBits (15 bits) into both physical
// copies, in the same bit order BitMatrixParser.ReadFormatInformation
// reads them back.
func drawFormatInformation(bm *bitutil.BitMatrix, dimension, formatBits int) {
	bit := func(k int) bool { return (formatBits>>uint(14-k))&1 == 1 }

	k := 0
	for i := 0; i < 6; i++ {
		setIf(bm, i, 8, bit(k))
		k++
	}
	setIf(bm, 7, 8, bit(k))
	k++
	setIf(bm, 8, 8, bit(k))
	k++
	setIf(bm, 8, 7, bit(k))
	k++
	for j := 5; j >= 0; j-- {
		setIf(bm, 8, j, bit(k))
		k++
	}

	k = 0
	jMin := dimension - 7
	for j := dimension - 1; j >= jMin; j-- {
		setIf(bm, 8, j, bit(k))
		k++
	}
	for i := dimension - 8; i < dimension; i++ {
		setIf(bm, i, 8, bit(k))
		k++
	}
}

// drawVersionInformation writes versionBits (18 bits) into both physical
// copies, in the same bit order BitMatrixParser.ReadVersion reads them.
func drawVersionInformation(bm *bitutil.BitMatrix, dimension, versionBits int) {
	bit := func(k int) bool { return (versionBits>>uint(17-k))&1 == 1 }
	ijMin := dimension - 11

	k := 0
	for j := 5; j >= 0; j-- {
		for i := dimension - 9; i >= ijMin; i-- {
			setIf(bm, i, j, bit(k))
			k++
		}
	}

	k = 0
	for i := 5; i >= 0; i-- {
		for j := dimension - 9; j >= ijMin; j-- {
			setIf(bm, i, j, bit(k))
			k++
		}
	}
}

func setIf(bm *bitutil.BitMatrix, x, y int, dark bool) {
	if dark {
		bm.Set(x, y)
	} else {
		bm.Unset(x, y)
	}
}

// placeCodewords writes rawCodewords into the matrix's non-function
// cells in the zig-zag column-pair order ISO/IEC 18004 specifies, the
// same traversal BitMatrixParser.ReadCodewords uses to read them back.
func placeCodewords(bm, functionPattern *bitutil.BitMatrix, rawCodewords []byte) error {
	dimension := bm.Height()
	if len(rawCodewords)*8 > countDataBits(dimension, functionPattern) {
		return qrerror.InvalidArgument
	}

	bitIndex := 0
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
				byteIdx := bitIndex / 8
				bitPos := 7 - bitIndex%8
				if byteIdx < len(rawCodewords) && (rawCodewords[byteIdx]>>uint(bitPos))&1 == 1 {
					bm.Set(x, i)
				}
				bitIndex++
			}
		}
		readingUp = !readingUp
	}
	return nil
}

func countDataBits(dimension int, functionPattern *bitutil.BitMatrix) int {
	count := 0
	for y := 0; y < dimension; y++ {
		for x := 0; x < dimension; x++ {
			if !functionPattern.Get(x, y) {
				count++
			}
		}
	}
	return count
}

// RenderLuminance rasterizes a symbol at moduleSize pixels per module
// with a quietZone-module white border, producing the greyscale input
// the production binarizer and detector expect.
func RenderLuminance(symbol *Symbol, moduleSize, quietZone int) (*luminance.Source, error) {
	dimension := symbol.Bits.Height()
	side := (dimension + 2*quietZone) * moduleSize
	buf := make([]byte, side*side)
	for i := range buf {
		buf[i] = 0xFF
	}

	for my := 0; my < dimension; my++ {
		for mx := 0; mx < dimension; mx++ {
			if !symbol.Bits.Get(mx, my) {
				continue
			}
			px0 := (mx + quietZone) * moduleSize
			py0 := (my + quietZone) * moduleSize
			for py := py0; py < py0+moduleSize; py++ {
				row := py * side
				for px := px0; px < px0+moduleSize; px++ {
					buf[row+px] = 0x00
				}
			}
		}
	}

	return luminance.New(buf, side, side)
}
