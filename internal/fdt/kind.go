package fdt

import "fmt"

// Kind is the inferred or assigned type of a property value. The ordering of
// the constants is significant: it is the widening lattice order, narrowest
// to widest, used by Widen to join two observations of the same property
// name into a common field type.
type Kind int

const (
	KindInt64 Kind = iota
	KindBool
	KindString
	KindInt
	KindByte
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindByte:
		return "byte"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// wider reports whether b is strictly wider than a in the lattice order.
func wider(a, b Kind) bool { return b > a }

// Wider reports whether b is strictly wider than a in the lattice order,
// for callers outside this package joining two observations of a field.
func Wider(a, b Kind) bool { return wider(a, b) }

// ElementsForKind converts a byte length into the element count Widen
// would produce for that Kind, per its byte-reinterpretation rule (e.g. a
// 1-cell INT occupies 4 bytes, so widening it to BYTE yields 4 elements,
// not 1). Callers sizing a widened field's declared length must use this
// rather than a pre-conversion Prop.Len(), which is in the property's
// current, not target, Kind's units.
func ElementsForKind(k Kind, byteLen int) int {
	switch k {
	case KindByte:
		return byteLen
	case KindInt:
		return (byteLen + 3) / 4
	case KindInt64:
		return (byteLen + 7) / 8
	default:
		return 1
	}
}

// inferKind applies the type-inference rule to raw property bytes: empty is
// BOOL(true); otherwise NUL-segmented printable ASCII is STRING; otherwise a
// non-multiple-of-4 size is BYTE; otherwise INT (one cell per 4 bytes).
func inferKind(raw []byte) Kind {
	if len(raw) == 0 {
		return KindBool
	}
	if looksLikeString(raw) {
		return KindString
	}
	if len(raw)%4 != 0 {
		return KindByte
	}
	return KindInt
}

func looksLikeString(raw []byte) bool {
	if raw[len(raw)-1] != 0 {
		return false
	}
	segStart := 0
	for i, c := range raw {
		if c == 0 {
			if i == segStart {
				return false // empty segment
			}
			segStart = i + 1
			continue
		}
		if c < 32 || c > 127 {
			return false
		}
	}
	return segStart == len(raw)
}
