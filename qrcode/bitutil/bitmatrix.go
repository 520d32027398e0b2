package bitutil

import (
	"fmt"

	"github.com/jalphad/qrvision/qrerror"
)

// BitMatrix is a square (or rectangular) grid of 1-bit values, row-major,
// packed 32 bits per word. It backs both the sampled module grid coming out
// of the detector and any intermediate masks built while parsing it.
type BitMatrix struct {
	width   int
	height  int
	rowSize int // words per row
	bits    []uint32
}

// NewBitMatrix allocates a cleared width x height matrix.
func NewBitMatrix(width, height int) (*BitMatrix, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("bitutil: new bit matrix %dx%d: %w", width, height, qrerror.InvalidArgument)
	}
	rowSize := (width + 31) / 32
	return &BitMatrix{
		width:   width,
		height:  height,
		rowSize: rowSize,
		bits:    make([]uint32, rowSize*height),
	}, nil
}

// NewSquareBitMatrix allocates a cleared dimension x dimension matrix.
func NewSquareBitMatrix(dimension int) (*BitMatrix, error) {
	return NewBitMatrix(dimension, dimension)
}

// Width returns the matrix width in modules.
func (m *BitMatrix) Width() int { return m.width }

// Height returns the matrix height in modules.
func (m *BitMatrix) Height() int { return m.height }

func (m *BitMatrix) offset(x, y int) (word int, bit uint) {
	return y*m.rowSize + x/32, uint(x % 32)
}

// Get reports whether the module at (x, y) is set (dark).
func (m *BitMatrix) Get(x, y int) bool {
	word, bit := m.offset(x, y)
	return (m.bits[word]>>bit)&1 != 0
}

// Set marks the module at (x, y) as dark.
func (m *BitMatrix) Set(x, y int) {
	word, bit := m.offset(x, y)
	m.bits[word] |= 1 << bit
}

// Unset marks the module at (x, y) as light.
func (m *BitMatrix) Unset(x, y int) {
	word, bit := m.offset(x, y)
	m.bits[word] &^= 1 << bit
}

// Flip inverts the module at (x, y).
func (m *BitMatrix) Flip(x, y int) {
	word, bit := m.offset(x, y)
	m.bits[word] ^= 1 << bit
}

// FlipAll inverts every module, used to normalize polarity when a detected
// symbol turns out inverted relative to the binarizer's convention.
func (m *BitMatrix) FlipAll() {
	for i := range m.bits {
		m.bits[i] = ^m.bits[i]
	}
}

// SetRegion marks every module in the rectangle [left, left+width) x
// [top, top+height) as dark. Returns InvalidArgument if the rectangle
// falls outside the matrix.
func (m *BitMatrix) SetRegion(left, top, width, height int) error {
	if top < 0 || left < 0 || width < 1 || height < 1 {
		return fmt.Errorf("bitutil: set region (%d,%d) %dx%d: %w", left, top, width, height, qrerror.InvalidArgument)
	}
	right := left + width
	bottom := top + height
	if bottom > m.height || right > m.width {
		return fmt.Errorf("bitutil: set region (%d,%d) %dx%d exceeds %dx%d matrix: %w", left, top, width, height, m.width, m.height, qrerror.InvalidArgument)
	}
	for y := top; y < bottom; y++ {
		for x := left; x < right; x++ {
			m.Set(x, y)
		}
	}
	return nil
}

// Mirror transposes the matrix in place (reflects across the main
// diagonal), used by the decoder's mirrored-retry path when a symbol was
// photographed through a reflective surface.
func (m *BitMatrix) Mirror() {
	for x := 0; x < m.width; x++ {
		for y := x + 1; y < m.height; y++ {
			if m.Get(x, y) != m.Get(y, x) {
				m.Flip(x, y)
				m.Flip(y, x)
			}
		}
	}
}

// Clone returns an independent copy of the matrix.
func (m *BitMatrix) Clone() *BitMatrix {
	bits := make([]uint32, len(m.bits))
	copy(bits, m.bits)
	return &BitMatrix{width: m.width, height: m.height, rowSize: m.rowSize, bits: bits}
}

// MaskPattern is one of the eight QR data-mask predicates from ISO/IEC
// 18004 Table 10. Each returns true when module (i row, j column) should be
// inverted.
type MaskPattern func(i, j int) bool

// MaskPatterns holds the eight standard data masks, indexed 0-7.
var MaskPatterns = [8]MaskPattern{
	func(i, j int) bool { return (i+j)%2 == 0 },
	func(i, j int) bool { return i%2 == 0 },
	func(i, j int) bool { return j%3 == 0 },
	func(i, j int) bool { return (i+j)%3 == 0 },
	func(i, j int) bool { return (i/2+j/3)%2 == 0 },
	func(i, j int) bool { return (i*j)%2+(i*j)%3 == 0 },
	func(i, j int) bool { return ((i*j)%2+(i*j)%3)%2 == 0 },
	func(i, j int) bool { return ((i+j)%2+(i*j)%3)%2 == 0 },
}

// Unmask flips every module for which mask(i, j) is true and function is
// nil or reports the module isn't a function pattern module. function may
// be nil to unmask unconditionally.
func (m *BitMatrix) Unmask(maskPattern int, function *BitMatrix) error {
	if maskPattern < 0 || maskPattern > 7 {
		return fmt.Errorf("bitutil: unmask: pattern %d out of range: %w", maskPattern, qrerror.InvalidArgument)
	}
	mask := MaskPatterns[maskPattern]
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if function != nil && function.Get(x, y) {
				continue
			}
			if mask(y, x) {
				m.Flip(x, y)
			}
		}
	}
	return nil
}
