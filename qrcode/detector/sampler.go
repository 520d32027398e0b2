package detector

import (
	"fmt"

	"github.com/jalphad/qrvision/qrcode/bitutil"
	"github.com/jalphad/qrvision/qrerror"
)

// SampleGrid transforms a dimensionX x dimensionY grid of module centers
// through transform and reads each resulting image coordinate into a bit
// matrix. Points that land exactly one pixel outside the image are nudged
// back in; anything further out is NotFound.
func SampleGrid(image *bitutil.BitMatrix, dimensionX, dimensionY int, transform *Transform) (*bitutil.BitMatrix, error) {
	if dimensionX <= 0 || dimensionY <= 0 {
		return nil, fmt.Errorf("detector: sample grid: non-positive dimension %dx%d: %w", dimensionX, dimensionY, qrerror.NotFound)
	}
	bits, err := bitutil.NewBitMatrix(dimensionX, dimensionY)
	if err != nil {
		return nil, fmt.Errorf("detector: sample grid: %w", err)
	}

	points := make([]float64, 2*dimensionX)
	for y := 0; y < dimensionY; y++ {
		iValue := float64(y) + 0.5
		for x := 0; x < len(points); x += 2 {
			points[x] = float64(x/2) + 0.5
			points[x+1] = iValue
		}
		transform.TransformPoints(points)
		if err := checkAndNudgePoints(image, points); err != nil {
			return nil, fmt.Errorf("detector: sample grid: row %d: %w", y, err)
		}
		for x := 0; x < len(points); x += 2 {
			px, py := int(points[x]), int(points[x+1])
			if px < 0 || px >= image.Width() || py < 0 || py >= image.Height() {
				return nil, fmt.Errorf("detector: sample grid: sampled point (%d,%d) outside image: %w", px, py, qrerror.NotFound)
			}
			if image.Get(px, py) {
				bits.Set(x/2, y)
			}
		}
	}
	return bits, nil
}

func checkAndNudgePoints(image *bitutil.BitMatrix, points []float64) error {
	width, height := image.Width(), image.Height()

	nudged := true
	for offset := 0; offset < len(points) && nudged; offset += 2 {
		x, y := int(points[offset]), int(points[offset+1])
		if x < -1 || x > width || y < -1 || y > height {
			return fmt.Errorf("detector: nudge point (%d,%d) too far outside %dx%d image: %w", x, y, width, height, qrerror.NotFound)
		}
		nudged = false
		if x == -1 {
			points[offset] = 0
			nudged = true
		} else if x == width {
			points[offset] = float64(width - 1)
			nudged = true
		}
		if y == -1 {
			points[offset+1] = 0
			nudged = true
		} else if y == height {
			points[offset+1] = float64(height - 1)
			nudged = true
		}
	}

	nudged = true
	for offset := len(points) - 2; offset >= 0 && nudged; offset -= 2 {
		x, y := int(points[offset]), int(points[offset+1])
		if x < -1 || x > width || y < -1 || y > height {
			return fmt.Errorf("detector: nudge point (%d,%d) too far outside %dx%d image: %w", x, y, width, height, qrerror.NotFound)
		}
		nudged = false
		if x == -1 {
			points[offset] = 0
			nudged = true
		} else if x == width {
			points[offset] = float64(width - 1)
			nudged = true
		}
		if y == -1 {
			points[offset+1] = 0
			nudged = true
		} else if y == height {
			points[offset+1] = float64(height - 1)
			nudged = true
		}
	}
	return nil
}
