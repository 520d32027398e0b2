package binarizer

import (
	"fmt"

	"github.com/jalphad/qrvision/qrcode/bitutil"
	"github.com/jalphad/qrvision/qrcode/luminance"
)

const blockSize = 8

// blockBinarize tiles the image into 8x8 blocks, computes a local
// threshold per block (falling back to a neighbour-smoothed estimate for
// low-contrast blocks), then thresholds each pixel against a 5x5 average
// of surrounding block thresholds.
func blockBinarize(source *luminance.Source) (*bitutil.BitMatrix, error) {
	width, height := source.Width(), source.Height()
	luminances := source.GetMatrix()

	subWidth := width / blockSize
	if width%blockSize != 0 {
		subWidth++
	}
	subHeight := height / blockSize
	if height%blockSize != 0 {
		subHeight++
	}

	blackPoints := calculateBlackPoints(luminances, subWidth, subHeight, width, height)

	matrix, err := bitutil.NewBitMatrix(width, height)
	if err != nil {
		return nil, fmt.Errorf("binarizer: block binarize: %w", err)
	}

	for y := 0; y < subHeight; y++ {
		yoffset := y * blockSize
		if maxY := height - blockSize; yoffset > maxY {
			yoffset = maxY
		}
		top := cap(y, 2, subHeight-3)
		for x := 0; x < subWidth; x++ {
			xoffset := x * blockSize
			if maxX := width - blockSize; xoffset > maxX {
				xoffset = maxX
			}
			left := cap(x, 2, subWidth-3)

			sum := 0
			for dy := -2; dy <= 2; dy++ {
				row := blackPoints[top+dy]
				sum += row[left-2] + row[left-1] + row[left] + row[left+1] + row[left+2]
			}
			threshold := byte(sum / 25)
			thresholdBlock(luminances, xoffset, yoffset, threshold, width, matrix)
		}
	}
	return matrix, nil
}

func cap(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// calculateBlackPoints computes one threshold per 8x8 block, using the
// block's own min/max/sum for high-contrast blocks, and a neighbour
// average for low-contrast ones (max-min <= 24) when that average exceeds
// the block's own minimum.
func calculateBlackPoints(luminances []byte, subWidth, subHeight, width, height int) [][]int {
	blackPoints := make([][]int, subHeight)
	for i := range blackPoints {
		blackPoints[i] = make([]int, subWidth)
	}

	for y := 0; y < subHeight; y++ {
		yoffset := y * blockSize
		if maxY := height - blockSize; yoffset > maxY {
			yoffset = maxY
		}
		for x := 0; x < subWidth; x++ {
			xoffset := x * blockSize
			if maxX := width - blockSize; xoffset > maxX {
				xoffset = maxX
			}

			sum, min, max := 0, 0xFF, 0
			for dy := 0; dy < blockSize; dy++ {
				rowStart := (yoffset+dy)*width + xoffset
				for dx := 0; dx < blockSize; dx++ {
					pixel := int(luminances[rowStart+dx])
					sum += pixel
					if pixel < min {
						min = pixel
					}
					if pixel > max {
						max = pixel
					}
				}
			}

			var average int
			if max-min <= 24 {
				average = min / 2
				if x > 0 && y > 0 {
					neighborAverage := (blackPoints[y-1][x] + 2*blackPoints[y][x-1] + blackPoints[y-1][x-1]) / 4
					if neighborAverage > min {
						average = neighborAverage
					}
				}
			} else {
				average = sum / (blockSize * blockSize)
			}
			blackPoints[y][x] = average
		}
	}
	return blackPoints
}

// thresholdBlock sets every module in the 8x8 block at (xoffset, yoffset)
// whose luminance is at or below threshold.
func thresholdBlock(luminances []byte, xoffset, yoffset int, threshold byte, width int, matrix *bitutil.BitMatrix) {
	for dy := 0; dy < blockSize; dy++ {
		rowStart := (yoffset+dy)*width + xoffset
		for dx := 0; dx < blockSize; dx++ {
			if luminances[rowStart+dx] <= threshold {
				matrix.Set(xoffset+dx, yoffset+dy)
			}
		}
	}
}
