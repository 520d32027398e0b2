package decoder

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"

	"github.com/jalphad/qrvision/qrcode/bitutil"
	"github.com/jalphad/qrvision/qrerror"
)

// mode indicator values, ISO/IEC 18004 Table 2.
const (
	modeTerminator        = 0x0
	modeNumeric           = 0x1
	modeAlphanumeric      = 0x2
	modeStructuredAppend  = 0x3
	modeByte              = 0x4
	modeFNC1First         = 0x5
	modeECI               = 0x7
	modeKanji             = 0x8
	modeFNC1Second        = 0x9
	modeHanzi             = 0xD
)

const alphanumericChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

// StructuredAppendInfo carries the 4-bit sequence index and count and the
// 8-bit parity byte a symbol's structured-append header records, when
// this symbol is one of a multi-symbol set.
type StructuredAppendInfo struct {
	SequenceNumber int
	ParityData     int
}

// DecodedResult is the textual and structural payload recovered from a
// symbol's corrected data codewords.
type DecodedResult struct {
	Text             string
	ByteSegments     [][]byte
	ECCLevel         ECCLevel
	HasECCLevel      bool
	StructuredAppend *StructuredAppendInfo
}

// DecodeBitStream walks the mode-indicator-prefixed segments of a
// corrected data codeword stream and assembles the decoded text and any
// raw byte segments it carried.
func DecodeBitStream(bytes []byte, version *Version, eccLevel ECCLevel) (*DecodedResult, error) {
	bits := bitutil.NewBitSource(bytes)
	var text strings.Builder
	var byteSegments [][]byte
	result := &DecodedResult{ECCLevel: eccLevel, HasECCLevel: true}

	currentCharset := encodingForECI(-1)
	fc1InEffect := false
	mode := modeTerminator

	for {
		if bits.Available() < 4 {
			mode = modeTerminator
		} else {
			m, err := bits.ReadBits(4)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: read mode indicator: %w", err)
			}
			mode = m
		}
		if mode == modeTerminator {
			break
		}

		switch mode {
		case modeFNC1First:
			fc1InEffect = true
		case modeFNC1Second:
			fc1InEffect = true
			if _, err := bits.ReadBits(8); err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: read FNC1 second-position app indicator: %w", err)
			}
		case modeStructuredAppend:
			if bits.Available() < 16 {
				return nil, fmt.Errorf("decoder: decode bit stream: structured append header truncated: %w", qrerror.Format)
			}
			seq, err := bits.ReadBits(8)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: read structured append sequence: %w", err)
			}
			parity, err := bits.ReadBits(8)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: read structured append parity: %w", err)
			}
			result.StructuredAppend = &StructuredAppendInfo{SequenceNumber: seq, ParityData: parity}
		case modeECI:
			value, err := parseECIValue(bits)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: parse ECI designator: %w", err)
			}
			currentCharset = encodingForECI(value)
		case modeHanzi:
			// Hanzi text is not decoded. For the GB2312 subset (1) the
			// 13-bit characters are skipped so later segments still
			// decode; for any other subset they are left in the stream.
			subset, err := bits.ReadBits(4)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: read hanzi subset: %w", err)
			}
			count, err := readCharacterCount(bits, version, mode)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: hanzi segment: %w", err)
			}
			if subset == 1 {
				if err := skipBits(bits, count*13); err != nil {
					return nil, fmt.Errorf("decoder: decode bit stream: skip hanzi segment: %w", err)
				}
			}
		case modeNumeric:
			count, err := readCharacterCount(bits, version, mode)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: numeric segment: %w", err)
			}
			if err := decodeNumericSegment(bits, &text, count); err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: numeric segment: %w", err)
			}
		case modeAlphanumeric:
			count, err := readCharacterCount(bits, version, mode)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: alphanumeric segment: %w", err)
			}
			if err := decodeAlphanumericSegment(bits, &text, count, fc1InEffect); err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: alphanumeric segment: %w", err)
			}
		case modeByte:
			count, err := readCharacterCount(bits, version, mode)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: byte segment: %w", err)
			}
			segment, err := decodeByteSegment(bits, count, currentCharset)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: byte segment: %w", err)
			}
			byteSegments = append(byteSegments, segment)
			text.Write(segment)
		case modeKanji:
			count, err := readCharacterCount(bits, version, mode)
			if err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: kanji segment: %w", err)
			}
			if err := decodeKanjiSegment(bits, &text, count); err != nil {
				return nil, fmt.Errorf("decoder: decode bit stream: kanji segment: %w", err)
			}
		default:
			return nil, fmt.Errorf("decoder: decode bit stream: unsupported mode indicator %#x: %w", mode, qrerror.Format)
		}
	}

	result.Text = text.String()
	result.ByteSegments = byteSegments
	return result, nil
}

func skipBits(bits *bitutil.BitSource, n int) error {
	for n > 0 {
		chunk := n
		if chunk > 31 {
			chunk = 31
		}
		if _, err := bits.ReadBits(chunk); err != nil {
			return fmt.Errorf("decoder: skip bits: %w", err)
		}
		n -= chunk
	}
	return nil
}

// characterCountBits returns the number of bits the length field occupies
// for the given mode at this symbol's version, per ISO/IEC 18004 Table 3.
func characterCountBits(version *Version, mode int) (int, error) {
	n := version.Number
	var bucket int
	switch {
	case n <= 9:
		bucket = 0
	case n <= 26:
		bucket = 1
	default:
		bucket = 2
	}
	table := map[int][3]int{
		modeNumeric:      {10, 12, 14},
		modeAlphanumeric: {9, 11, 13},
		modeByte:         {8, 16, 16},
		modeKanji:        {8, 10, 12},
		modeHanzi:        {8, 10, 12},
	}
	bits, ok := table[mode]
	if !ok {
		return 0, fmt.Errorf("decoder: character count bits: no table entry for mode %#x: %w", mode, qrerror.Format)
	}
	return bits[bucket], nil
}

func readCharacterCount(bits *bitutil.BitSource, version *Version, mode int) (int, error) {
	numBits, err := characterCountBits(version, mode)
	if err != nil {
		return 0, fmt.Errorf("decoder: read character count: %w", err)
	}
	n, err := bits.ReadBits(numBits)
	if err != nil {
		return 0, fmt.Errorf("decoder: read character count: %w", err)
	}
	return n, nil
}

func decodeNumericSegment(bits *bitutil.BitSource, out *strings.Builder, count int) error {
	for count >= 3 {
		v, err := bits.ReadBits(10)
		if err != nil {
			return fmt.Errorf("decoder: decode numeric segment: read triplet: %w", err)
		}
		if v >= 1000 {
			return fmt.Errorf("decoder: decode numeric segment: triplet value %d out of range: %w", v, qrerror.Format)
		}
		out.WriteByte(byte('0' + v/100))
		out.WriteByte(byte('0' + (v/10)%10))
		out.WriteByte(byte('0' + v%10))
		count -= 3
	}
	if count == 2 {
		v, err := bits.ReadBits(7)
		if err != nil {
			return fmt.Errorf("decoder: decode numeric segment: read pair: %w", err)
		}
		if v >= 100 {
			return fmt.Errorf("decoder: decode numeric segment: pair value %d out of range: %w", v, qrerror.Format)
		}
		out.WriteByte(byte('0' + v/10))
		out.WriteByte(byte('0' + v%10))
	} else if count == 1 {
		v, err := bits.ReadBits(4)
		if err != nil {
			return fmt.Errorf("decoder: decode numeric segment: read final digit: %w", err)
		}
		if v >= 10 {
			return fmt.Errorf("decoder: decode numeric segment: digit value %d out of range: %w", v, qrerror.Format)
		}
		out.WriteByte(byte('0' + v))
	}
	return nil
}

func decodeAlphanumericSegment(bits *bitutil.BitSource, out *strings.Builder, count int, fc1InEffect bool) error {
	start := out.Len()
	for count > 1 {
		v, err := bits.ReadBits(11)
		if err != nil {
			return fmt.Errorf("decoder: decode alphanumeric segment: read pair: %w", err)
		}
		if v/45 >= len(alphanumericChars) || v%45 >= len(alphanumericChars) {
			return fmt.Errorf("decoder: decode alphanumeric segment: pair value %d out of range: %w", v, qrerror.Format)
		}
		out.WriteByte(alphanumericChars[v/45])
		out.WriteByte(alphanumericChars[v%45])
		count -= 2
	}
	if count == 1 {
		v, err := bits.ReadBits(6)
		if err != nil {
			return fmt.Errorf("decoder: decode alphanumeric segment: read final char: %w", err)
		}
		if v >= len(alphanumericChars) {
			return fmt.Errorf("decoder: decode alphanumeric segment: char value %d out of range: %w", v, qrerror.Format)
		}
		out.WriteByte(alphanumericChars[v])
	}

	if !fc1InEffect {
		return nil
	}
	segment := []byte(out.String()[start:])
	rewritten := make([]byte, 0, len(segment))
	for i := 0; i < len(segment); i++ {
		if segment[i] == '%' {
			if i+1 < len(segment) && segment[i+1] == '%' {
				rewritten = append(rewritten, '%')
				i++
			} else {
				rewritten = append(rewritten, 0x1D)
			}
		} else {
			rewritten = append(rewritten, segment[i])
		}
	}
	truncated := out.String()[:start]
	out.Reset()
	out.WriteString(truncated)
	out.Write(rewritten)
	return nil
}

func decodeByteSegment(bits *bitutil.BitSource, count int, charset textDecoder) ([]byte, error) {
	raw := make([]byte, count)
	for i := 0; i < count; i++ {
		v, err := bits.ReadBits(8)
		if err != nil {
			return nil, fmt.Errorf("decoder: decode byte segment: read byte %d: %w", i, err)
		}
		raw[i] = byte(v)
	}
	if charset == nil {
		return decodeGuessedCharset(raw), nil
	}
	decoded, err := charset.decode(raw)
	if err != nil {
		return raw, nil
	}
	return decoded, nil
}

func decodeKanjiSegment(bits *bitutil.BitSource, out *strings.Builder, count int) error {
	sjis := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		v, err := bits.ReadBits(13)
		if err != nil {
			return fmt.Errorf("decoder: decode kanji segment: read character %d: %w", i, err)
		}
		assembled := (v/0xC0)<<8 | (v % 0xC0)
		if assembled < 0x1F00 {
			assembled += 0x8140
		} else {
			assembled += 0xC140
		}
		sjis = append(sjis, byte(assembled>>8), byte(assembled))
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(sjis)
	if err != nil {
		return fmt.Errorf("decoder: decode kanji segment: shift-jis decode: %w", qrerror.Format)
	}
	out.Write(decoded)
	return nil
}

// parseECIValue decodes the variable-length ECI designator: one byte if
// the high bit is clear, two bytes if the top two bits are 10, three
// bytes if the top three bits are 110.
func parseECIValue(bits *bitutil.BitSource) (int, error) {
	first, err := bits.ReadBits(8)
	if err != nil {
		return 0, fmt.Errorf("decoder: parse ECI value: read designator prefix: %w", err)
	}
	if first&0x80 == 0 {
		return first & 0x7F, nil
	}
	if first&0xC0 == 0x80 {
		second, err := bits.ReadBits(8)
		if err != nil {
			return 0, fmt.Errorf("decoder: parse ECI value: read two-byte designator: %w", err)
		}
		return (first&0x3F)<<8 | second, nil
	}
	if first&0xE0 == 0xC0 {
		rest, err := bits.ReadBits(16)
		if err != nil {
			return 0, fmt.Errorf("decoder: parse ECI value: read three-byte designator: %w", err)
		}
		return (first&0x1F)<<16 | rest, nil
	}
	return 0, fmt.Errorf("decoder: parse ECI value: unrecognized designator prefix %#x: %w", first, qrerror.Format)
}

// textDecoder converts an ECI-tagged byte segment into UTF-8.
type textDecoder interface {
	decode(b []byte) ([]byte, error)
}

// simpleDecoder adapts any golang.org/x/text encoding.Decoder (charmap,
// unicode, or japanese) to textDecoder.
type simpleDecoder struct {
	dec interface {
		Bytes(b []byte) ([]byte, error)
	}
}

func (s simpleDecoder) decode(b []byte) ([]byte, error) {
	return s.dec.Bytes(b)
}

// encodingForECI maps an AIM ECI designator to a decoder. Unrecognized or
// unset (-1) values fall back to charset sniffing in decodeByteSegment.
func encodingForECI(value int) textDecoder {
	switch value {
	case 3:
		return simpleDecoder{charmap.ISO8859_1.NewDecoder()}
	case 4:
		return simpleDecoder{charmap.ISO8859_2.NewDecoder()}
	case 5:
		return simpleDecoder{charmap.ISO8859_3.NewDecoder()}
	case 6:
		return simpleDecoder{charmap.ISO8859_4.NewDecoder()}
	case 7:
		return simpleDecoder{charmap.ISO8859_5.NewDecoder()}
	case 9:
		return simpleDecoder{charmap.ISO8859_7.NewDecoder()}
	case 13:
		return simpleDecoder{charmap.ISO8859_11.NewDecoder()}
	case 17:
		return simpleDecoder{charmap.ISO8859_15.NewDecoder()}
	case 20:
		return simpleDecoder{japanese.ShiftJIS.NewDecoder()}
	case 25:
		return simpleDecoder{unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()}
	case 26:
		return nil // UTF-8: already in the target encoding
	default:
		return nil
	}
}

// decodeGuessedCharset falls back to ISO-8859-1 passthrough unless the
// bytes already form valid UTF-8, mirroring the common "guess" heuristic
// reference decoders apply when no ECI designator is present.
func decodeGuessedCharset(raw []byte) []byte {
	if utf8.Valid(raw) {
		return raw
	}
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		out = utf8.AppendRune(out, rune(b))
	}
	return out
}
