// Package reader is the thin boundary collaborator between an image file
// or io.Reader and the qrcode decoding core: it loads pixels, converts
// them to a greyscale luminance source, and hands off to qrcode.Decode.
package reader

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/jalphad/qrvision/qrcode"
	"github.com/jalphad/qrvision/qrcode/luminance"
)

// DecodeFile opens path, decodes it as an image, and extracts a QR symbol.
func DecodeFile(path string) (*qrcode.DecodeResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()
	return Decode(file)
}

// Decode reads an image from r (any format registered via the blank
// image/* imports above) and extracts a QR symbol from it.
func Decode(r io.Reader) (*qrcode.DecodeResult, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	source, err := sourceFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("converting image to luminance source: %w", err)
	}

	return qrcode.Decode(source)
}

// sourceFromImage converts any image.Image to a greyscale luminance
// Source using the standard (R + 2G + B) / 4 weighting, by way of an
// interleaved RGB buffer so NewFromRGB's R=G=B fast path still applies to
// already-greyscale sources (image/png grey images, for instance).
func sourceFromImage(img image.Image) (*luminance.Source, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	rgb := make([]byte, width*height*3)
	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rgb[idx] = byte(r >> 8)
			rgb[idx+1] = byte(g >> 8)
			rgb[idx+2] = byte(b >> 8)
			idx += 3
		}
	}

	return luminance.NewFromRGB(rgb, width, height)
}
