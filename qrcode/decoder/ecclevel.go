package decoder

// ECCLevel is one of the four QR error-correction levels. Bits matches the
// 2-bit encoding ISO/IEC 18004 uses inside format information.
type ECCLevel int

const (
	ECCLevelM ECCLevel = iota // bits 0x00, ~15% recovery
	ECCLevelL                 // bits 0x01, ~7% recovery
	ECCLevelH                 // bits 0x02, ~30% recovery
	ECCLevelQ                 // bits 0x03, ~25% recovery
)

// eccLevelByOrdinal maps ordinal position (as used to index Version.ecBlocks)
// to the ECCLevel it represents: L, M, Q, H.
var eccLevelByOrdinal = [4]ECCLevel{ECCLevelL, ECCLevelM, ECCLevelQ, ECCLevelH}

// Ordinal returns this level's index into Version's per-level arrays
// (L=0, M=1, Q=2, H=3).
func (l ECCLevel) Ordinal() int {
	switch l {
	case ECCLevelL:
		return 0
	case ECCLevelM:
		return 1
	case ECCLevelQ:
		return 2
	case ECCLevelH:
		return 3
	default:
		return -1
	}
}

// Bits returns the 2-bit format-information encoding for this level.
func (l ECCLevel) Bits() int {
	switch l {
	case ECCLevelM:
		return 0x00
	case ECCLevelL:
		return 0x01
	case ECCLevelH:
		return 0x02
	case ECCLevelQ:
		return 0x03
	}
	return -1
}

// eccLevelForBits decodes the 2-bit field back into an ECCLevel.
func eccLevelForBits(bits int) ECCLevel {
	switch bits & 0x3 {
	case 0x00:
		return ECCLevelM
	case 0x01:
		return ECCLevelL
	case 0x02:
		return ECCLevelH
	default:
		return ECCLevelQ
	}
}

func (l ECCLevel) String() string {
	switch l {
	case ECCLevelL:
		return "L"
	case ECCLevelM:
		return "M"
	case ECCLevelQ:
		return "Q"
	case ECCLevelH:
		return "H"
	default:
		return "?"
	}
}
