// Package luminance provides a read-only view over a greyscale raster, the
// common input type every downstream stage (binarizer, detector) consumes.
package luminance

import (
	"fmt"

	"github.com/jalphad/qrvision/qrerror"
)

// Source is a read-only window onto a row-major greyscale raster. Crop
// returns a new Source sharing the same backing buffer, so cropping is
// cheap and never copies pixel data.
type Source struct {
	buffer        []byte
	dataWidth     int
	dataHeight    int
	left, top     int
	width, height int
}

// New wraps a full width x height greyscale buffer (one byte per pixel,
// row-major) as a Source.
func New(buffer []byte, width, height int) (*Source, error) {
	if width < 1 || height < 1 || len(buffer) < width*height {
		return nil, fmt.Errorf("luminance: new source %dx%d: %w", width, height, qrerror.InvalidArgument)
	}
	return &Source{
		buffer:     buffer,
		dataWidth:  width,
		dataHeight: height,
		width:      width,
		height:     height,
	}, nil
}

// NewFromRGB converts an interleaved RGB buffer (3 bytes per pixel) to
// greyscale using the formula ISO/IEC 18004 implementations commonly use:
// pass R through unchanged when R=G=B, else (R + 2G + B) / 4.
func NewFromRGB(rgb []byte, width, height int) (*Source, error) {
	if width < 1 || height < 1 || len(rgb) < width*height*3 {
		return nil, fmt.Errorf("luminance: new source from rgb %dx%d: %w", width, height, qrerror.InvalidArgument)
	}
	grey := make([]byte, width*height)
	for i := 0; i < width*height; i++ {
		r := int(rgb[i*3])
		g := int(rgb[i*3+1])
		b := int(rgb[i*3+2])
		if r == g && g == b {
			grey[i] = byte(r)
		} else {
			grey[i] = byte((r + 2*g + b) / 4)
		}
	}
	return New(grey, width, height)
}

// Width returns the view's width in pixels.
func (s *Source) Width() int { return s.width }

// Height returns the view's height in pixels.
func (s *Source) Height() int { return s.height }

// GetRow copies row y (0-indexed within the view) into buf, reusing it when
// it is already long enough, and returns the slice actually populated.
func (s *Source) GetRow(y int, buf []byte) ([]byte, error) {
	if y < 0 || y >= s.height {
		return nil, fmt.Errorf("luminance: get row %d: %w", y, qrerror.InvalidArgument)
	}
	if cap(buf) < s.width {
		buf = make([]byte, s.width)
	}
	buf = buf[:s.width]
	rowStart := (s.top+y)*s.dataWidth + s.left
	copy(buf, s.buffer[rowStart:rowStart+s.width])
	return buf, nil
}

// GetMatrix returns the whole view as a row-major width*height buffer,
// copying only if the view is cropped (i.e. not the full backing buffer).
func (s *Source) GetMatrix() []byte {
	if s.left == 0 && s.top == 0 && s.width == s.dataWidth && s.height == s.dataHeight {
		return s.buffer
	}
	matrix := make([]byte, s.width*s.height)
	for y := 0; y < s.height; y++ {
		rowStart := (s.top+y)*s.dataWidth + s.left
		copy(matrix[y*s.width:(y+1)*s.width], s.buffer[rowStart:rowStart+s.width])
	}
	return matrix
}

// Crop returns a new view restricted to the sub-rectangle
// [left, left+width) x [top, top+height) of this view's own coordinates.
func (s *Source) Crop(left, top, width, height int) (*Source, error) {
	if left < 0 || top < 0 || width < 1 || height < 1 || left+width > s.width || top+height > s.height {
		return nil, fmt.Errorf("luminance: crop %d,%d %dx%d: %w", left, top, width, height, qrerror.InvalidArgument)
	}
	return &Source{
		buffer:     s.buffer,
		dataWidth:  s.dataWidth,
		dataHeight: s.dataHeight,
		left:       s.left + left,
		top:        s.top + top,
		width:      width,
		height:     height,
	}, nil
}
