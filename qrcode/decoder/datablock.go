package decoder

import (
	"fmt"

	"github.com/jalphad/qrvision/qrerror"
	"github.com/jalphad/qrvision/reedsolomon"
)

// DataBlock is one Reed-Solomon block: numDataCodewords data bytes
// followed by the block's own error-correction bytes.
type DataBlock struct {
	numDataCodewords int
	codewords        []byte
}

// NumDataCodewords returns how many of Codewords() are data (the rest are
// error-correction bytes).
func (d *DataBlock) NumDataCodewords() int { return d.numDataCodewords }

// Codewords returns the block's full codeword slice (data, then EC).
func (d *DataBlock) Codewords() []byte { return d.codewords }

// GetDataBlocks splits rawCodewords (as read in symbol order by
// BitMatrixParser.ReadCodewords) into per-block interleaved groups
// according to the version/ECC-level block layout. The final groups in a
// version's layout may carry one extra data codeword; those blocks'
// payloads are filled in after the common-length portion.
func GetDataBlocks(rawCodewords []byte, version *Version, ecLevel ECCLevel) ([]*DataBlock, error) {
	if len(rawCodewords) != version.TotalCodewords {
		return nil, fmt.Errorf("decoder: get data blocks: got %d raw codewords, expected %d: %w", len(rawCodewords), version.TotalCodewords, qrerror.Format)
	}
	ecBlocks := version.ECBlocksForLevel(ecLevel)

	totalBlocks := 0
	for _, blk := range ecBlocks.Blocks {
		totalBlocks += blk.Count
	}

	result := make([]*DataBlock, totalBlocks)
	numResultBlocks := 0
	for _, ecBlock := range ecBlocks.Blocks {
		for i := 0; i < ecBlock.Count; i++ {
			numDataCodewords := ecBlock.DataCodewords
			numBlockCodewords := ecBlocks.ECCodewordsPerBlock + numDataCodewords
			result[numResultBlocks] = &DataBlock{
				numDataCodewords: numDataCodewords,
				codewords:        make([]byte, numBlockCodewords),
			}
			numResultBlocks++
		}
	}

	shorterBlocksTotalCodewords := len(result[0].codewords)
	longerBlocksStartAt := len(result) - 1
	for longerBlocksStartAt >= 0 {
		if len(result[longerBlocksStartAt].codewords) == shorterBlocksTotalCodewords {
			break
		}
		longerBlocksStartAt--
	}
	longerBlocksStartAt++

	shorterBlocksNumCodewords := shorterBlocksTotalCodewords - ecBlocks.ECCodewordsPerBlock

	rawCodewordsOffset := 0
	for i := 0; i < shorterBlocksNumCodewords; i++ {
		for j := 0; j < numResultBlocks; j++ {
			result[j].codewords[i] = rawCodewords[rawCodewordsOffset]
			rawCodewordsOffset++
		}
	}

	for j := longerBlocksStartAt; j < numResultBlocks; j++ {
		result[j].codewords[shorterBlocksNumCodewords] = rawCodewords[rawCodewordsOffset]
		rawCodewordsOffset++
	}

	maxCodewords := len(result[0].codewords)
	for i := shorterBlocksNumCodewords; i < maxCodewords; i++ {
		for j := 0; j < numResultBlocks; j++ {
			iOffset := i
			if j >= longerBlocksStartAt {
				iOffset = i + 1
			}
			if iOffset < len(result[j].codewords) {
				result[j].codewords[iOffset] = rawCodewords[rawCodewordsOffset]
				rawCodewordsOffset++
			}
		}
	}

	return result, nil
}

// CorrectAndConcatenate runs Reed-Solomon correction on each block and
// concatenates the corrected data portions in block order, producing the
// symbol's final data codeword stream.
func CorrectAndConcatenate(blocks []*DataBlock, ecCodewordsPerBlock int) ([]byte, error) {
	rs := reedsolomon.NewDecoder()
	totalDataCodewords := 0
	for _, blk := range blocks {
		totalDataCodewords += blk.NumDataCodewords()
	}
	result := make([]byte, 0, totalDataCodewords)
	for blockIndex, blk := range blocks {
		codewords := blk.Codewords()
		if err := rs.Decode(codewords, ecCodewordsPerBlock); err != nil {
			return nil, fmt.Errorf("decoder: correct and concatenate: block %d: %w", blockIndex, err)
		}
		result = append(result, codewords[:blk.NumDataCodewords()]...)
	}
	return result, nil
}
