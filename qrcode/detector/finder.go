package detector

import (
	"fmt"
	"math"

	"github.com/jalphad/qrvision/qrcode/bitutil"
	"github.com/jalphad/qrvision/qrerror"
)

const (
	centerQuorum = 2
	minSkip      = 3
	maxModules   = 97
)

// FinderPattern is a located finder pattern center, along with the
// estimated module size at that location and how many scan rows have
// confirmed it.
type FinderPattern struct {
	ResultPoint
	EstimatedModuleSize float64
	Count               int
}

func (f *FinderPattern) aboutEquals(moduleSize, i, j float64) bool {
	if math.Abs(i-f.Y) <= moduleSize && math.Abs(j-f.X) <= moduleSize {
		diff := math.Abs(moduleSize - f.EstimatedModuleSize)
		return diff <= 1.0 || diff <= f.EstimatedModuleSize
	}
	return false
}

func (f *FinderPattern) combineEstimate(i, j, newModuleSize float64) *FinderPattern {
	combinedCount := f.Count + 1
	return &FinderPattern{
		ResultPoint: ResultPoint{
			X: (float64(f.Count)*f.X + j) / float64(combinedCount),
			Y: (float64(f.Count)*f.Y + i) / float64(combinedCount),
		},
		EstimatedModuleSize: (float64(f.Count)*f.EstimatedModuleSize + newModuleSize) / float64(combinedCount),
		Count:               combinedCount,
	}
}

// FinderPatternInfo is the three ordered finder centers a successful scan
// produces.
type FinderPatternInfo struct {
	BottomLeft, TopLeft, TopRight *FinderPattern
}

type finderPatternFinder struct {
	image           *bitutil.BitMatrix
	possibleCenters []*FinderPattern
	hasSkipped      bool
}

// FindFinderPatterns scans a binarized image for the three finder
// patterns that anchor a QR symbol.
func FindFinderPatterns(image *bitutil.BitMatrix) (*FinderPatternInfo, error) {
	f := &finderPatternFinder{image: image}
	if err := f.find(); err != nil {
		return nil, fmt.Errorf("detector: find finder patterns: %w", err)
	}
	centers, err := f.selectBestPatterns()
	if err != nil {
		return nil, fmt.Errorf("detector: find finder patterns: %w", err)
	}
	bottomLeft, topLeft, topRight := orderBestPatterns(centers[0].ResultPoint, centers[1].ResultPoint, centers[2].ResultPoint)
	return &FinderPatternInfo{
		BottomLeft: patternAt(centers, bottomLeft),
		TopLeft:    patternAt(centers, topLeft),
		TopRight:   patternAt(centers, topRight),
	}, nil
}

func patternAt(centers [3]*FinderPattern, p ResultPoint) *FinderPattern {
	for _, c := range centers {
		if c.ResultPoint == p {
			return c
		}
	}
	return centers[0]
}

func (f *finderPatternFinder) find() error {
	maxI := f.image.Height()
	maxJ := f.image.Width()
	iSkip := (3 * maxI) / (4 * maxModules)
	if iSkip < minSkip {
		iSkip = minSkip
	}

	done := false
	stateCount := make([]int, 5)
	for i := iSkip - 1; i < maxI && !done; i += iSkip {
		for k := range stateCount {
			stateCount[k] = 0
		}
		currentState := 0

		for j := 0; j < maxJ; j++ {
			if f.image.Get(j, i) {
				if currentState&1 == 1 {
					currentState++
				}
				stateCount[currentState]++
			} else {
				if currentState&1 == 0 {
					if currentState == 4 {
						if foundPatternCross(stateCount) {
							confirmed := f.handlePossibleCenter(stateCount, i, j)
							if confirmed {
								iSkip = 2
								if f.hasSkipped {
									done = f.haveMultiplyConfirmedCenters()
								} else {
									rowSkip := f.findRowSkip()
									if rowSkip > stateCount[2] {
										i += rowSkip - stateCount[2] - iSkip
										j = maxJ - 1
									}
								}
								for k := range stateCount {
									stateCount[k] = 0
								}
								currentState = 0
								continue
							}
						}
						stateCount[0] = stateCount[2]
						stateCount[1] = stateCount[3]
						stateCount[2] = stateCount[4]
						stateCount[3] = 1
						stateCount[4] = 0
						currentState = 3
						continue
					}
					currentState++
					stateCount[currentState]++
				} else {
					stateCount[currentState]++
				}
			}
		}
		if foundPatternCross(stateCount) {
			confirmed := f.handlePossibleCenter(stateCount, i, maxJ)
			if confirmed {
				iSkip = stateCount[0]
				if f.hasSkipped {
					done = f.haveMultiplyConfirmedCenters()
				}
			}
		}
	}
	return nil
}

// foundPatternCross reports whether the five run lengths are in the
// 1:1:3:1:1 proportion ISO/IEC 18004 finder patterns have, within 50% of
// the implied module size.
func foundPatternCross(stateCount []int) bool {
	totalModuleSize := 0
	for _, count := range stateCount {
		if count == 0 {
			return false
		}
		totalModuleSize += count
	}
	if totalModuleSize < 7 {
		return false
	}
	moduleSize := float64(totalModuleSize) / 7.0
	maxVariance := moduleSize / 2.0
	return math.Abs(moduleSize-float64(stateCount[0])) < maxVariance &&
		math.Abs(moduleSize-float64(stateCount[1])) < maxVariance &&
		math.Abs(3*moduleSize-float64(stateCount[2])) < 3*maxVariance &&
		math.Abs(moduleSize-float64(stateCount[3])) < maxVariance &&
		math.Abs(moduleSize-float64(stateCount[4])) < maxVariance
}

func centerFromEnd(stateCount []int, end int) float64 {
	return float64(end-stateCount[4]-stateCount[3]) - float64(stateCount[2])/2.0
}

func (f *finderPatternFinder) crossCheckVertical(startI, centerJ, maxCount int, originalStateCountTotal int) float64 {
	maxI := f.image.Height()
	stateCount := make([]int, 5)

	i := startI
	for i >= 0 && f.image.Get(centerJ, i) {
		stateCount[2]++
		i--
	}
	if i < 0 {
		return math.NaN()
	}
	for i >= 0 && !f.image.Get(centerJ, i) && stateCount[1] <= maxCount {
		stateCount[1]++
		i--
	}
	if i < 0 || stateCount[1] > maxCount {
		return math.NaN()
	}
	for i >= 0 && f.image.Get(centerJ, i) && stateCount[0] <= maxCount {
		stateCount[0]++
		i--
	}
	if stateCount[0] > maxCount {
		return math.NaN()
	}

	i = startI + 1
	for i < maxI && f.image.Get(centerJ, i) {
		stateCount[2]++
		i++
	}
	if i == maxI {
		return math.NaN()
	}
	for i < maxI && !f.image.Get(centerJ, i) && stateCount[3] < maxCount {
		stateCount[3]++
		i++
	}
	if i == maxI || stateCount[3] >= maxCount {
		return math.NaN()
	}
	for i < maxI && f.image.Get(centerJ, i) && stateCount[4] < maxCount {
		stateCount[4]++
		i++
	}
	if stateCount[4] >= maxCount {
		return math.NaN()
	}

	stateCountTotal := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	if 5*abs(stateCountTotal-originalStateCountTotal) >= 2*originalStateCountTotal {
		return math.NaN()
	}
	if foundPatternCross(stateCount) {
		return centerFromEnd(stateCount, i)
	}
	return math.NaN()
}

func (f *finderPatternFinder) crossCheckHorizontal(startJ, centerI, maxCount int, originalStateCountTotal int) float64 {
	maxJ := f.image.Width()
	stateCount := make([]int, 5)

	j := startJ
	for j >= 0 && f.image.Get(j, centerI) {
		stateCount[2]++
		j--
	}
	if j < 0 {
		return math.NaN()
	}
	for j >= 0 && !f.image.Get(j, centerI) && stateCount[1] <= maxCount {
		stateCount[1]++
		j--
	}
	if j < 0 || stateCount[1] > maxCount {
		return math.NaN()
	}
	for j >= 0 && f.image.Get(j, centerI) && stateCount[0] <= maxCount {
		stateCount[0]++
		j--
	}
	if stateCount[0] > maxCount {
		return math.NaN()
	}

	j = startJ + 1
	for j < maxJ && f.image.Get(j, centerI) {
		stateCount[2]++
		j++
	}
	if j == maxJ {
		return math.NaN()
	}
	for j < maxJ && !f.image.Get(j, centerI) && stateCount[3] < maxCount {
		stateCount[3]++
		j++
	}
	if j == maxJ || stateCount[3] >= maxCount {
		return math.NaN()
	}
	for j < maxJ && f.image.Get(j, centerI) && stateCount[4] < maxCount {
		stateCount[4]++
		j++
	}
	if stateCount[4] >= maxCount {
		return math.NaN()
	}

	stateCountTotal := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	if 5*abs(stateCountTotal-originalStateCountTotal) >= 2*originalStateCountTotal {
		return math.NaN()
	}
	if foundPatternCross(stateCount) {
		return centerFromEnd(stateCount, j)
	}
	return math.NaN()
}

// crossCheckDiagonal walks up-left and down-right from (centerI, centerJ)
// counting runs, requiring the same 1:1:3:1:1 proportion with a looser
// (100% of horizontal run) total-size tolerance, per spec.
func (f *finderPatternFinder) crossCheckDiagonal(centerI, centerJ, originalStateCountTotal int) bool {
	stateCount := make([]int, 5)

	i, j := centerI, centerJ
	for i >= 0 && j >= 0 && f.image.Get(j, i) {
		stateCount[2]++
		i--
		j--
	}
	if i < 0 || j < 0 {
		return false
	}
	for i >= 0 && j >= 0 && !f.image.Get(j, i) {
		stateCount[1]++
		i--
		j--
	}
	if i < 0 || j < 0 {
		return false
	}
	for i >= 0 && j >= 0 && f.image.Get(j, i) {
		stateCount[0]++
		i--
		j--
	}

	maxI, maxJ := f.image.Height(), f.image.Width()
	i, j = centerI+1, centerJ+1
	for i < maxI && j < maxJ && f.image.Get(j, i) {
		stateCount[2]++
		i++
		j++
	}
	if i == maxI || j == maxJ {
		return false
	}
	for i < maxI && j < maxJ && !f.image.Get(j, i) {
		stateCount[3]++
		i++
		j++
	}
	if i == maxI || j == maxJ {
		return false
	}
	for i < maxI && j < maxJ && f.image.Get(j, i) {
		stateCount[4]++
		i++
		j++
	}

	stateCountTotal := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	if abs(stateCountTotal-originalStateCountTotal) >= originalStateCountTotal {
		return false
	}
	return foundPatternCross(stateCount)
}

func (f *finderPatternFinder) handlePossibleCenter(stateCount []int, i, j int) bool {
	stateCountTotal := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	centerJ := centerFromEnd(stateCount, j)
	centerI := f.crossCheckVertical(i, int(centerJ), stateCount[2], stateCountTotal)
	if math.IsNaN(centerI) {
		return false
	}
	centerJ = f.crossCheckHorizontal(int(centerJ), int(centerI), stateCount[2], stateCountTotal)
	if math.IsNaN(centerJ) {
		return false
	}
	if !f.crossCheckDiagonal(int(centerI), int(centerJ), stateCountTotal) {
		return false
	}

	estimatedModuleSize := float64(stateCountTotal) / 7.0
	for idx, center := range f.possibleCenters {
		if center.aboutEquals(estimatedModuleSize, centerI, centerJ) {
			f.possibleCenters[idx] = center.combineEstimate(centerI, centerJ, estimatedModuleSize)
			return true
		}
	}
	f.possibleCenters = append(f.possibleCenters, &FinderPattern{
		ResultPoint:         ResultPoint{X: centerJ, Y: centerI},
		EstimatedModuleSize: estimatedModuleSize,
		Count:               1,
	})
	return true
}

func (f *finderPatternFinder) haveMultiplyConfirmedCenters() bool {
	confirmedCount := 0
	totalModuleSize := 0.0
	for _, p := range f.possibleCenters {
		if p.Count >= centerQuorum {
			confirmedCount++
			totalModuleSize += p.EstimatedModuleSize
		}
	}
	if confirmedCount < 3 {
		return false
	}
	average := totalModuleSize / float64(len(f.possibleCenters))
	totalDeviation := 0.0
	for _, p := range f.possibleCenters {
		totalDeviation += math.Abs(p.EstimatedModuleSize - average)
	}
	return totalDeviation <= 0.05*totalModuleSize
}

func (f *finderPatternFinder) findRowSkip() int {
	if len(f.possibleCenters) <= 1 {
		return 0
	}
	var firstConfirmed *FinderPattern
	for _, center := range f.possibleCenters {
		if center.Count >= centerQuorum {
			if firstConfirmed == nil {
				firstConfirmed = center
			} else {
				f.hasSkipped = true
				return int((math.Abs(firstConfirmed.X-center.X) - math.Abs(firstConfirmed.Y-center.Y)) / 2)
			}
		}
	}
	return 0
}

// selectBestPatterns picks the three candidates whose estimated module
// sizes lie within a 1.4x ratio and whose triangle is closest to
// isosceles-right, per the policy this module adopts instead of the
// furthest-from-average heuristic.
func (f *finderPatternFinder) selectBestPatterns() ([3]*FinderPattern, error) {
	var zero [3]*FinderPattern
	n := len(f.possibleCenters)
	if n < 3 {
		return zero, fmt.Errorf("detector: select best patterns: only %d candidates found: %w", n, qrerror.NotFound)
	}
	if n == 3 {
		return [3]*FinderPattern{f.possibleCenters[0], f.possibleCenters[1], f.possibleCenters[2]}, nil
	}

	bestScore := math.Inf(1)
	found := false
	var best [3]*FinderPattern
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				a, bC, c := f.possibleCenters[i], f.possibleCenters[j], f.possibleCenters[k]
				minSize := math.Min(a.EstimatedModuleSize, math.Min(bC.EstimatedModuleSize, c.EstimatedModuleSize))
				maxSize := math.Max(a.EstimatedModuleSize, math.Max(bC.EstimatedModuleSize, c.EstimatedModuleSize))
				if maxSize > 1.4*minSize {
					continue
				}
				score := isoscelesRightScore(a.ResultPoint, bC.ResultPoint, c.ResultPoint)
				if score < bestScore {
					bestScore = score
					best = [3]*FinderPattern{a, bC, c}
					found = true
				}
			}
		}
	}
	if !found {
		return zero, fmt.Errorf("detector: select best patterns: no triple within module-size ratio: %w", qrerror.NotFound)
	}
	return best, nil
}

// isoscelesRightScore scores how close the triangle formed by p0,p1,p2 is
// to isosceles-right: |c-2b| + |c-2a| where a<=b<=c are the squared side
// lengths.
func isoscelesRightScore(p0, p1, p2 ResultPoint) float64 {
	sides := []float64{
		distanceSquared(p0, p1),
		distanceSquared(p1, p2),
		distanceSquared(p0, p2),
	}
	if sides[0] > sides[1] {
		sides[0], sides[1] = sides[1], sides[0]
	}
	if sides[1] > sides[2] {
		sides[1], sides[2] = sides[2], sides[1]
	}
	if sides[0] > sides[1] {
		sides[0], sides[1] = sides[1], sides[0]
	}
	a, bSide, c := sides[0], sides[1], sides[2]
	return math.Abs(c-2*bSide) + math.Abs(c-2*a)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
