// Package binarizer turns a greyscale luminance.Source into the black and
// white bitutil.BitMatrix the detector operates on. Two strategies are
// used depending on image size: a histogram-based global threshold for
// small rasters, and a locally-adaptive 8x8 block threshold otherwise.
package binarizer

import (
	"fmt"

	"github.com/jalphad/qrvision/qrcode/bitutil"
	"github.com/jalphad/qrvision/qrcode/luminance"
	"github.com/jalphad/qrvision/qrerror"
)

const smallImageThreshold = 40

// Binarize picks the histogram or block strategy based on source size and
// returns the resulting bit matrix. A dark pixel (luminance at or below
// threshold) becomes a set module.
func Binarize(source *luminance.Source) (*bitutil.BitMatrix, error) {
	if source.Width() < smallImageThreshold || source.Height() < smallImageThreshold {
		return histogramBinarize(source)
	}
	return blockBinarize(source)
}

const luminanceBuckets = 32
const luminanceShift = 3 // 8 - log2(luminanceBuckets)

// histogramBinarize samples a handful of rows to build one global
// histogram and thresholds the whole image with a single cut point.
func histogramBinarize(source *luminance.Source) (*bitutil.BitMatrix, error) {
	width, height := source.Width(), source.Height()
	matrix, err := bitutil.NewBitMatrix(width, height)
	if err != nil {
		return nil, fmt.Errorf("binarizer: histogram binarize: %w", err)
	}

	colStart := width / 5
	colEnd := 4 * width / 5
	if colEnd <= colStart {
		colStart, colEnd = 0, width
	}

	var buckets [luminanceBuckets]int
	var row []byte
	for k := 1; k <= 4; k++ {
		y := height * k / 5
		if y >= height {
			y = height - 1
		}
		row, err = source.GetRow(y, row)
		if err != nil {
			return nil, fmt.Errorf("binarizer: histogram binarize: sample row %d: %w", y, err)
		}
		for x := colStart; x < colEnd; x++ {
			buckets[row[x]>>luminanceShift]++
		}
	}

	threshold, err := estimateBlackPoint(buckets[:])
	if err != nil {
		return nil, fmt.Errorf("binarizer: histogram binarize: %w", err)
	}

	matrixBuf := source.GetMatrix()
	for y := 0; y < height; y++ {
		rowStart := y * width
		for x := 0; x < width; x++ {
			if matrixBuf[rowStart+x] <= threshold {
				matrix.Set(x, y)
			}
		}
	}
	return matrix, nil
}

// estimateBlackPoint finds the global threshold separating the black and
// white populations in a luminance histogram: the tallest peak, the peak
// farthest from it (weighted by distance squared), and the valley between
// them most depleted relative to the peaks.
func estimateBlackPoint(buckets []int) (byte, error) {
	numBuckets := len(buckets)
	maxBucketCount := 0
	firstPeak := 0
	firstPeakSize := 0
	for x, count := range buckets {
		if count > firstPeakSize {
			firstPeak = x
			firstPeakSize = count
		}
		if count > maxBucketCount {
			maxBucketCount = count
		}
	}

	secondPeak := 0
	secondPeakScore := 0
	for x, count := range buckets {
		distance := x - firstPeak
		score := count * distance * distance
		if score > secondPeakScore {
			secondPeak = x
			secondPeakScore = score
		}
	}
	if firstPeak > secondPeak {
		firstPeak, secondPeak = secondPeak, firstPeak
	}

	if secondPeak-firstPeak <= numBuckets/2 {
		return 0, fmt.Errorf("binarizer: estimate black point: peaks too close to separate foreground from background: %w", qrerror.NotFound)
	}

	bestValley := secondPeak - 1
	bestValleyScore := -1
	for x := secondPeak - 1; x > firstPeak; x-- {
		fromFirst := x - firstPeak
		score := fromFirst * fromFirst * (secondPeak - x) * (maxBucketCount - buckets[x])
		if score > bestValleyScore {
			bestValley = x
			bestValleyScore = score
		}
	}
	return byte(bestValley << luminanceShift), nil
}
