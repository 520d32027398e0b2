package detector

import (
	"fmt"
	"math"

	"github.com/jalphad/qrvision/qrcode/bitutil"
	"github.com/jalphad/qrvision/qrerror"
)

// AlignmentPattern is a located alignment pattern center.
type AlignmentPattern struct {
	ResultPoint
	EstimatedModuleSize float64
	Count               int
}

func (a *AlignmentPattern) aboutEquals(moduleSize, i, j float64) bool {
	if math.Abs(i-a.Y) <= moduleSize && math.Abs(j-a.X) <= moduleSize {
		diff := math.Abs(moduleSize - a.EstimatedModuleSize)
		return diff <= 1.0 || diff <= a.EstimatedModuleSize
	}
	return false
}

func (a *AlignmentPattern) combineEstimate(i, j, newModuleSize float64) *AlignmentPattern {
	combinedCount := a.Count + 1
	return &AlignmentPattern{
		ResultPoint: ResultPoint{
			X: (float64(a.Count)*a.X + j) / float64(combinedCount),
			Y: (float64(a.Count)*a.Y + i) / float64(combinedCount),
		},
		EstimatedModuleSize: (float64(a.Count)*a.EstimatedModuleSize + newModuleSize) / float64(combinedCount),
		Count:               combinedCount,
	}
}

type alignmentPatternFinder struct {
	image           *bitutil.BitMatrix
	startX, startY  int
	width, height   int
	moduleSize      float64
	possibleCenters []*AlignmentPattern
}

// FindAlignmentPattern searches the rectangle
// [startX, startX+width) x [startY, startY+height) for a 1:1:1
// white-black-white run (the dark center module between the light ring)
// near the expected module size.
// The rectangle must be at least 3 module sizes on a side, else this is
// NotFound.
func FindAlignmentPattern(image *bitutil.BitMatrix, moduleSize float64, startX, startY, width, height int) (*AlignmentPattern, error) {
	if float64(width) < 3*moduleSize || float64(height) < 3*moduleSize {
		return nil, fmt.Errorf("detector: find alignment pattern: search region %dx%d too small for module size %.3f: %w", width, height, moduleSize, qrerror.NotFound)
	}
	f := &alignmentPatternFinder{
		image:      image,
		startX:     startX,
		startY:     startY,
		width:      width,
		height:     height,
		moduleSize: moduleSize,
	}
	pattern, err := f.find()
	if err != nil {
		return nil, fmt.Errorf("detector: find alignment pattern: %w", err)
	}
	return pattern, nil
}

func (f *alignmentPatternFinder) find() (*AlignmentPattern, error) {
	maxJ := f.startX + f.width
	middleI := f.startY + f.height/2

	stateCount := make([]int, 3)
	for iGen := 0; iGen < f.height; iGen++ {
		var i int
		if iGen&1 == 0 {
			i = middleI + (iGen+1)/2
		} else {
			i = middleI - (iGen+1)/2
		}
		if i < 0 || i >= f.image.Height() {
			continue
		}

		stateCount[0], stateCount[1], stateCount[2] = 0, 0, 0
		j := f.startX
		for j < maxJ && !f.image.Get(j, i) {
			j++
		}
		currentState := 0
		for ; j < maxJ; j++ {
			if f.image.Get(j, i) {
				if currentState == 1 {
					stateCount[1]++
				} else if currentState == 2 {
					if f.foundPatternCross(stateCount) {
						confirmed := f.handlePossibleCenter(stateCount, i, j)
						if confirmed != nil {
							return confirmed, nil
						}
					}
					stateCount[0] = stateCount[2]
					stateCount[1] = 1
					stateCount[2] = 0
					currentState = 1
				} else {
					currentState++
					stateCount[currentState]++
				}
			} else {
				if currentState == 1 {
					currentState++
				}
				stateCount[currentState]++
			}
		}
		if f.foundPatternCross(stateCount) {
			confirmed := f.handlePossibleCenter(stateCount, i, maxJ)
			if confirmed != nil {
				return confirmed, nil
			}
		}
	}

	if len(f.possibleCenters) > 0 {
		return f.possibleCenters[0], nil
	}
	return nil, fmt.Errorf("detector: no confirmed alignment pattern candidate: %w", qrerror.NotFound)
}

func (f *alignmentPatternFinder) foundPatternCross(stateCount []int) bool {
	maxVariance := f.moduleSize / 2.0
	for i := 0; i < 3; i++ {
		if math.Abs(f.moduleSize-float64(stateCount[i])) >= maxVariance {
			return false
		}
	}
	return true
}

func alignmentCenterFromEnd(stateCount []int, end int) float64 {
	return float64(end-stateCount[2]) - float64(stateCount[1])/2.0
}

func (f *alignmentPatternFinder) crossCheckVertical(startI, centerJ, maxCount, originalStateCountTotal int) float64 {
	maxI := f.image.Height()
	stateCount := make([]int, 3)

	i := startI
	for i >= 0 && f.image.Get(centerJ, i) && stateCount[1] <= maxCount {
		stateCount[1]++
		i--
	}
	if i < 0 || stateCount[1] > maxCount {
		return math.NaN()
	}
	for i >= 0 && !f.image.Get(centerJ, i) && stateCount[0] <= maxCount {
		stateCount[0]++
		i--
	}
	if stateCount[0] > maxCount {
		return math.NaN()
	}

	i = startI + 1
	for i < maxI && f.image.Get(centerJ, i) && stateCount[1] <= maxCount {
		stateCount[1]++
		i++
	}
	if i == maxI || stateCount[1] > maxCount {
		return math.NaN()
	}
	for i < maxI && !f.image.Get(centerJ, i) && stateCount[2] <= maxCount {
		stateCount[2]++
		i++
	}
	if stateCount[2] > maxCount {
		return math.NaN()
	}

	stateCountTotal := stateCount[0] + stateCount[1] + stateCount[2]
	if 5*abs(stateCountTotal-originalStateCountTotal) >= 2*originalStateCountTotal {
		return math.NaN()
	}
	if f.foundPatternCross(stateCount) {
		return alignmentCenterFromEnd(stateCount, i)
	}
	return math.NaN()
}

func (f *alignmentPatternFinder) handlePossibleCenter(stateCount []int, i, j int) *AlignmentPattern {
	stateCountTotal := stateCount[0] + stateCount[1] + stateCount[2]
	centerJ := alignmentCenterFromEnd(stateCount, j)
	centerI := f.crossCheckVertical(i, int(centerJ), 2*stateCount[1], stateCountTotal)
	if math.IsNaN(centerI) {
		return nil
	}

	estimatedModuleSize := float64(stateCountTotal) / 3.0
	for idx, center := range f.possibleCenters {
		if center.aboutEquals(estimatedModuleSize, centerI, centerJ) {
			combined := center.combineEstimate(centerI, centerJ, estimatedModuleSize)
			f.possibleCenters[idx] = combined
			if combined.Count >= 2 {
				return combined
			}
			return nil
		}
	}
	f.possibleCenters = append(f.possibleCenters, &AlignmentPattern{
		ResultPoint:         ResultPoint{X: centerJ, Y: centerI},
		EstimatedModuleSize: estimatedModuleSize,
		Count:               1,
	})
	return nil
}
