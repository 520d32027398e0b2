package detector

import (
	"fmt"
	"math"

	"github.com/jalphad/qrvision/qrcode/bitutil"
	"github.com/jalphad/qrvision/qrcode/decoder"
	"github.com/jalphad/qrvision/qrerror"
)

// Result is everything the detector recovers from a binarized image: the
// sampled module grid and the anchor points used to build it.
type Result struct {
	Bits             *bitutil.BitMatrix
	TopLeft          *FinderPattern
	TopRight         *FinderPattern
	BottomLeft       *FinderPattern
	AlignmentPattern *AlignmentPattern
}

// Detect locates a QR symbol's finder patterns, estimates its module size
// and dimension, searches for the alignment pattern, and samples the
// symbol into a dimension x dimension bit matrix.
func Detect(image *bitutil.BitMatrix) (*Result, error) {
	info, err := FindFinderPatterns(image)
	if err != nil {
		return nil, fmt.Errorf("detector: detect: %w", err)
	}
	result, err := processFinderPatternInfo(image, info)
	if err != nil {
		return nil, fmt.Errorf("detector: detect: %w", err)
	}
	return result, nil
}

func processFinderPatternInfo(image *bitutil.BitMatrix, info *FinderPatternInfo) (*Result, error) {
	topLeft, topRight, bottomLeft := info.TopLeft, info.TopRight, info.BottomLeft

	moduleSize := calculateModuleSize(image, topLeft.ResultPoint, topRight.ResultPoint, bottomLeft.ResultPoint)
	if moduleSize < 1.0 {
		return nil, fmt.Errorf("detector: estimated module size %.3f below one pixel: %w", moduleSize, qrerror.NotFound)
	}

	dimension, err := computeDimension(topLeft.ResultPoint, topRight.ResultPoint, bottomLeft.ResultPoint, moduleSize)
	if err != nil {
		return nil, fmt.Errorf("detector: compute dimension: %w", err)
	}

	provisionalVersion, err := decoder.ProvisionalVersionForDimension(dimension)
	if err != nil {
		return nil, fmt.Errorf("detector: provisional version for dimension %d: %w", dimension, err)
	}
	modulesBetweenFPCenters := provisionalVersion.Dimension() - 7

	var alignmentPattern *AlignmentPattern
	if len(provisionalVersion.AlignmentPatternCenters) > 0 {
		bottomRightX := topRight.X - topLeft.X + bottomLeft.X
		bottomRightY := topRight.Y - topLeft.Y + bottomLeft.Y

		correctionToTopLeft := 1.0 - 3.0/float64(modulesBetweenFPCenters)
		estAlignmentX := int(topLeft.X + correctionToTopLeft*(bottomRightX-topLeft.X))
		estAlignmentY := int(topLeft.Y + correctionToTopLeft*(bottomRightY-topLeft.Y))

		for allowanceFactor := 4; allowanceFactor <= 16; allowanceFactor <<= 1 {
			pattern, aerr := findAlignmentInRegion(image, moduleSize, estAlignmentX, estAlignmentY, float64(allowanceFactor))
			if aerr == nil {
				alignmentPattern = pattern
				break
			}
		}
	}

	bits, err := sampleGrid(image, topLeft.ResultPoint, topRight.ResultPoint, bottomLeft.ResultPoint, alignmentPattern, dimension)
	if err != nil {
		return nil, fmt.Errorf("detector: sample grid: %w", err)
	}

	return &Result{
		Bits:             bits,
		TopLeft:          topLeft,
		TopRight:         topRight,
		BottomLeft:       bottomLeft,
		AlignmentPattern: alignmentPattern,
	}, nil
}

func findAlignmentInRegion(image *bitutil.BitMatrix, overallEstModuleSize float64, estAlignmentX, estAlignmentY int, allowanceFactor float64) (*AlignmentPattern, error) {
	allowance := int(allowanceFactor * overallEstModuleSize)
	alignmentAreaLeftX := max(0, estAlignmentX-allowance)
	alignmentAreaRightX := min(image.Width()-1, estAlignmentX+allowance)
	if float64(alignmentAreaRightX-alignmentAreaLeftX) < overallEstModuleSize*3 {
		return nil, fmt.Errorf("detector: alignment search region too narrow: %w", qrerror.NotFound)
	}
	alignmentAreaTopY := max(0, estAlignmentY-allowance)
	alignmentAreaBottomY := min(image.Height()-1, estAlignmentY+allowance)
	if float64(alignmentAreaBottomY-alignmentAreaTopY) < overallEstModuleSize*3 {
		return nil, fmt.Errorf("detector: alignment search region too short: %w", qrerror.NotFound)
	}

	pattern, err := FindAlignmentPattern(image, overallEstModuleSize,
		alignmentAreaLeftX, alignmentAreaTopY,
		alignmentAreaRightX-alignmentAreaLeftX, alignmentAreaBottomY-alignmentAreaTopY)
	if err != nil {
		return nil, fmt.Errorf("detector: find alignment pattern: %w", err)
	}
	return pattern, nil
}

func sampleGrid(image *bitutil.BitMatrix, topLeft, topRight, bottomLeft ResultPoint, alignmentPattern *AlignmentPattern, dimension int) (*bitutil.BitMatrix, error) {
	dimMinusThree := float64(dimension) - 3.5

	var bottomRightX, bottomRightY, sourceBottomRightX, sourceBottomRightY float64
	if alignmentPattern != nil {
		bottomRightX = alignmentPattern.X
		bottomRightY = alignmentPattern.Y
		sourceBottomRightX = dimMinusThree - 3.0
		sourceBottomRightY = sourceBottomRightX
	} else {
		bottomRightX = topRight.X - topLeft.X + bottomLeft.X
		bottomRightY = topRight.Y - topLeft.Y + bottomLeft.Y
		sourceBottomRightX = dimMinusThree
		sourceBottomRightY = dimMinusThree
	}

	transform := QuadrilateralToQuadrilateral(
		3.5, 3.5,
		dimMinusThree, 3.5,
		sourceBottomRightX, sourceBottomRightY,
		3.5, dimMinusThree,
		topLeft.X, topLeft.Y,
		topRight.X, topRight.Y,
		bottomRightX, bottomRightY,
		bottomLeft.X, bottomLeft.Y,
	)

	bits, err := SampleGrid(image, dimension, dimension, transform)
	if err != nil {
		return nil, fmt.Errorf("detector: sample grid: project quadrilateral: %w", err)
	}
	return bits, nil
}

func computeDimension(topLeft, topRight, bottomLeft ResultPoint, moduleSize float64) (int, error) {
	tltrCentersDimension := roundToInt(distance(topLeft, topRight) / moduleSize)
	tlblCentersDimension := roundToInt(distance(topLeft, bottomLeft) / moduleSize)
	dimension := (tltrCentersDimension+tlblCentersDimension)/2 + 7
	switch dimension & 0x03 {
	case 0:
		dimension++
	case 2:
		dimension--
	case 3:
		return 0, fmt.Errorf("detector: compute dimension: structurally impossible dimension %d: %w", dimension, qrerror.NotFound)
	}
	if dimension&0x03 != 1 {
		return 0, fmt.Errorf("detector: compute dimension: dimension %d not congruent to 1 mod 4: %w", dimension, qrerror.Format)
	}
	return dimension, nil
}

func roundToInt(v float64) int {
	return int(math.Floor(v + 0.5))
}

func calculateModuleSize(image *bitutil.BitMatrix, topLeft, topRight, bottomLeft ResultPoint) float64 {
	return (calculateModuleSizeOneWay(image, topLeft, topRight) + calculateModuleSizeOneWay(image, topLeft, bottomLeft)) / 2.0
}

func calculateModuleSizeOneWay(image *bitutil.BitMatrix, pattern, otherPattern ResultPoint) float64 {
	est1 := sizeOfBlackWhiteBlackRunBothWays(image, int(pattern.X), int(pattern.Y), int(otherPattern.X), int(otherPattern.Y))
	est2 := sizeOfBlackWhiteBlackRunBothWays(image, int(otherPattern.X), int(otherPattern.Y), int(pattern.X), int(pattern.Y))
	if math.IsNaN(est1) {
		return est2 / 7.0
	}
	if math.IsNaN(est2) {
		return est1 / 7.0
	}
	return (est1 + est2) / 14.0
}

// sizeOfBlackWhiteBlackRunBothWays measures the black-white-black run from
// (fromX,fromY) toward (toX,toY), then again in the opposite direction
// (extrapolated past the start point and clamped to image bounds),
// summing both so a finder pattern center that sits off-axis from a
// straight line between the other two patterns still gets a fair
// estimate.
func sizeOfBlackWhiteBlackRunBothWays(image *bitutil.BitMatrix, fromX, fromY, toX, toY int) float64 {
	result := sizeOfBlackWhiteBlackRun(image, fromX, fromY, toX, toY)

	scale := 1.0
	otherToX := fromX - (toX - fromX)
	if otherToX < 0 {
		scale = float64(fromX) / float64(fromX-otherToX)
		otherToX = 0
	} else if otherToX >= image.Width() {
		scale = float64(image.Width()-1-fromX) / float64(otherToX-fromX)
		otherToX = image.Width() - 1
	}
	otherToY := int(float64(fromY) - float64(toY-fromY)*scale)

	scale = 1.0
	if otherToY < 0 {
		scale = float64(fromY) / float64(fromY-otherToY)
		otherToY = 0
	} else if otherToY >= image.Height() {
		scale = float64(image.Height()-1-fromY) / float64(otherToY-fromY)
		otherToY = image.Height() - 1
	}
	otherToX = int(float64(fromX) + float64(otherToX-fromX)*scale)

	result += sizeOfBlackWhiteBlackRun(image, fromX, fromY, otherToX, otherToY)
	return result - 1.0
}

// sizeOfBlackWhiteBlackRun walks from (fromX,fromY) to (toX,toY) with a
// Bresenham line through a black run, a white run and a second black run,
// and returns the distance to the first white pixel after the second
// black run. If the line ends inside the second black run, the pixel just
// past (toX,toY) is taken as that white pixel; if it ends earlier, the
// distance to (toX,toY) is returned.
func sizeOfBlackWhiteBlackRun(image *bitutil.BitMatrix, fromX, fromY, toX, toY int) float64 {
	steep := abs(toY-fromY) > abs(toX-fromX)
	if steep {
		fromX, fromY = fromY, fromX
		toX, toY = toY, toX
	}

	dx := abs(toX - fromX)
	dy := abs(toY - fromY)
	errAcc := -dx / 2
	xstep := 1
	if fromX >= toX {
		xstep = -1
	}
	ystep := 1
	if fromY >= toY {
		ystep = -1
	}

	state := 0
	xLimit := toX + xstep
	x, y := fromX, fromY
	for ; x != xLimit; x += xstep {
		realX, realY := x, y
		if steep {
			realX, realY = y, x
		}

		if state == 1 {
			if image.Get(realX, realY) {
				state++
			}
		} else {
			if !image.Get(realX, realY) {
				state++
			}
		}

		if state == 3 {
			diffX := x - fromX
			diffY := y - fromY
			return math.Sqrt(float64(diffX*diffX + diffY*diffY))
		}
		errAcc += dy
		if errAcc > 0 {
			if y == toY {
				break
			}
			y += ystep
			errAcc -= dx
		}
	}
	if state == 2 {
		diffX := toX + xstep - fromX
		diffY := toY - fromY
		return math.Sqrt(float64(diffX*diffX + diffY*diffY))
	}
	diffX := toX - fromX
	diffY := toY - fromY
	return math.Sqrt(float64(diffX*diffX + diffY*diffY))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
