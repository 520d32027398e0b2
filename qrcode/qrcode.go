// Package qrcode ties the imaging and coding pipeline together: a
// binarized bit matrix goes in, and a decoded symbol comes out. It tries
// the matrix as sampled first, and retries with mirror addressing if the
// straight read fails for any reason — a cheap recovery for symbols
// photographed through glass or a mirror. If the retry fails too, the
// straight read's error is returned.
package qrcode

import (
	"fmt"

	"github.com/jalphad/qrvision/qrcode/binarizer"
	"github.com/jalphad/qrvision/qrcode/bitutil"
	"github.com/jalphad/qrvision/qrcode/decoder"
	"github.com/jalphad/qrvision/qrcode/detector"
	"github.com/jalphad/qrvision/qrcode/luminance"
)

// DecodeResult is the complete outcome of decoding one symbol.
type DecodeResult struct {
	Text             string
	RawBytes         []byte
	ByteSegments     [][]byte
	Version          int
	ECCLevel         decoder.ECCLevel
	StructuredAppend *decoder.StructuredAppendInfo
}

// Decode locates and decodes a single QR symbol within source.
func Decode(source *luminance.Source) (*DecodeResult, error) {
	bits, err := binarizer.Binarize(source)
	if err != nil {
		return nil, fmt.Errorf("qrcode: decode: binarize: %w", err)
	}
	result, err := DecodeBitMatrix(bits)
	if err != nil {
		return nil, fmt.Errorf("qrcode: decode: %w", err)
	}
	return result, nil
}

// DecodeBitMatrix runs the detector and decoder pipeline directly against
// an already-binarized matrix, for callers that produce their own
// binarization (tests, alternative capture paths).
func DecodeBitMatrix(bits *bitutil.BitMatrix) (*DecodeResult, error) {
	detected, err := detector.Detect(bits)
	if err != nil {
		return nil, fmt.Errorf("qrcode: decode bit matrix: detect: %w", err)
	}

	parser, err := decoder.NewBitMatrixParser(detected.Bits)
	if err != nil {
		return nil, fmt.Errorf("qrcode: decode bit matrix: new bit matrix parser: %w", err)
	}

	result, err := decodeWithParser(parser, false)
	if err == nil {
		return result, nil
	}
	parser.Remask()
	mirrored, merr := decodeWithParser(parser, true)
	if merr == nil {
		return mirrored, nil
	}
	return nil, fmt.Errorf("qrcode: decode bit matrix: straight read failed, mirrored retry also failed: %w", err)
}

func decodeWithParser(parser *decoder.BitMatrixParser, mirror bool) (*DecodeResult, error) {
	parser.SetMirror(mirror)

	version, err := parser.ReadVersion()
	if err != nil {
		return nil, fmt.Errorf("decode with parser: read version: %w", err)
	}
	formatInfo, err := parser.ReadFormatInformation()
	if err != nil {
		return nil, fmt.Errorf("decode with parser: read format information: %w", err)
	}
	rawCodewords, err := parser.ReadCodewords()
	if err != nil {
		return nil, fmt.Errorf("decode with parser: read codewords: %w", err)
	}

	dataBlocks, err := decoder.GetDataBlocks(rawCodewords, version, formatInfo.ECCLevel)
	if err != nil {
		return nil, fmt.Errorf("decode with parser: get data blocks: %w", err)
	}
	ecBlocks := version.ECBlocksForLevel(formatInfo.ECCLevel)
	dataBytes, err := decoder.CorrectAndConcatenate(dataBlocks, ecBlocks.ECCodewordsPerBlock)
	if err != nil {
		return nil, fmt.Errorf("decode with parser: correct and concatenate: %w", err)
	}

	decoded, err := decoder.DecodeBitStream(dataBytes, version, formatInfo.ECCLevel)
	if err != nil {
		return nil, fmt.Errorf("decode with parser: decode bit stream: %w", err)
	}

	return &DecodeResult{
		Text:             decoded.Text,
		RawBytes:         dataBytes,
		ByteSegments:     decoded.ByteSegments,
		Version:          version.Number,
		ECCLevel:         formatInfo.ECCLevel,
		StructuredAppend: decoded.StructuredAppend,
	}, nil
}
