package fdt

import "encoding/binary"

// PhandleArgs is one resolved (target, args...) tuple parsed out of a
// phandle-bearing property's INT cells.
type PhandleArgs struct {
	Target *Node
	Args   []uint32
}

// Prop is a single device-tree property: an owning node, its raw bytes as
// last synced (or as most recently set), the inferred/assigned Kind, and the
// interpreted value split across kind-specific slices. Exactly one of the
// typed fields holds data for a given Kind, except that Scalar distinguishes
// a bare single value from a one-element list for emission purposes.
type Prop struct {
	Node   *Node
	Name   string
	Offset int // -1 when not synced to the blob
	Dirty  bool

	Kind    Kind
	Scalar  bool
	Strings []string
	Ints    []uint32
	Int64s  []uint64
	Bytes   []byte
	Bool    bool

	Phandles []PhandleArgs
}

// newProp decodes raw bytes per the type-inference rule into a Prop.
func newProp(node *Node, name string, raw []byte, offset int) *Prop {
	p := &Prop{Node: node, Name: name, Offset: offset, Kind: inferKind(raw)}
	p.decode(raw)
	return p
}

func (p *Prop) decode(raw []byte) {
	switch p.Kind {
	case KindBool:
		p.Bool = true
		p.Scalar = true
	case KindString:
		p.Strings = splitCStrings(raw)
		p.Scalar = len(p.Strings) == 1
	case KindByte:
		p.Bytes = append([]byte(nil), raw...)
		p.Scalar = len(p.Bytes) == 1
	case KindInt:
		p.Ints = decodeU32(raw)
		p.Scalar = len(p.Ints) == 1
	case KindInt64:
		p.Int64s = decodeU64(raw)
		p.Scalar = len(p.Int64s) == 1
	}
}

func splitCStrings(raw []byte) []string {
	var out []string
	start := 0
	for i, c := range raw {
		if c == 0 {
			out = append(out, string(raw[start:i]))
			start = i + 1
		}
	}
	return out
}

func decodeU32(raw []byte) []uint32 {
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(raw[i*4:])
	}
	return out
}

func decodeU64(raw []byte) []uint64 {
	out := make([]uint64, len(raw)/8)
	for i := range out {
		out[i] = binary.BigEndian.Uint64(raw[i*8:])
	}
	return out
}

// raw returns the raw on-the-wire encoding of the property's current
// value, independent of whether it has ever been synced.
func (p *Prop) raw() []byte {
	switch p.Kind {
	case KindBool:
		return nil
	case KindString:
		var out []byte
		for _, s := range p.Strings {
			out = append(out, []byte(s)...)
			out = append(out, 0)
		}
		return out
	case KindByte:
		return append([]byte(nil), p.Bytes...)
	case KindInt:
		out := make([]byte, 4*len(p.Ints))
		for i, v := range p.Ints {
			binary.BigEndian.PutUint32(out[i*4:], v)
		}
		return out
	case KindInt64:
		out := make([]byte, 8*len(p.Int64s))
		for i, v := range p.Int64s {
			binary.BigEndian.PutUint64(out[i*8:], v)
		}
		return out
	}
	return nil
}

func (p *Prop) markDirty() {
	p.Dirty = true
	p.Offset = -1
}

// SetInt replaces the property with a single 32-bit cell.
func (p *Prop) SetInt(v uint32) {
	p.Kind, p.Ints, p.Scalar = KindInt, []uint32{v}, true
	p.markDirty()
}

// SetInts replaces the property with a list of 32-bit cells.
func (p *Prop) SetInts(v []uint32) {
	p.Kind, p.Ints, p.Scalar = KindInt, v, len(v) == 1
	p.markDirty()
}

// SetData replaces the property with a raw byte string.
func (p *Prop) SetData(v []byte) {
	p.Kind, p.Bytes, p.Scalar = KindByte, v, len(v) == 1
	p.markDirty()
}

// SetString replaces the property with a single NUL-terminated string.
func (p *Prop) SetString(v string) {
	p.Kind, p.Strings, p.Scalar = KindString, []string{v}, true
	p.markDirty()
}

// SetStringList replaces the property with a NUL-separated string list. An
// empty list encodes to zero bytes.
func (p *Prop) SetStringList(v []string) {
	p.Kind, p.Strings, p.Scalar = KindString, v, len(v) == 1
	p.markDirty()
}

// SetEmpty replaces the property with an empty (boolean-flag) value.
func (p *Prop) SetEmpty() {
	*p = Prop{Node: p.Node, Name: p.Name, Kind: KindBool, Bool: true, Scalar: true}
	p.markDirty()
}

// widenZero returns the zero-value element used to pad a list up to a
// target length when widening.
func widenZero(k Kind) any {
	switch k {
	case KindString:
		return ""
	case KindInt64:
		return uint64(0)
	default:
		return uint32(0)
	}
}

// Widen converts p's value in place to the given target Kind and pads its
// element list to at least targetLen elements, joining this property's
// observed type into a struct-family-wide field type. Kind conversion is by
// byte reinterpretation: the property's current raw encoding is redecoded
// using the target kind's element grouping, which happens to reproduce both
// of the two documented transitions (BOOL->INT yields a single zero cell;
// INT->BYTE explodes each 4-byte cell into its bytes) as special cases of
// one rule, rather than needing separate code paths.
func (p *Prop) Widen(target Kind, targetLen int) {
	if target != p.Kind {
		raw := p.raw()
		p.Kind = target
		p.Strings, p.Ints, p.Int64s, p.Bytes, p.Bool = nil, nil, nil, nil, false
		switch target {
		case KindBool:
			p.Bool = len(raw) > 0
		case KindString:
			p.Strings = splitCStrings(raw)
		case KindByte:
			p.Bytes = append([]byte(nil), raw...)
		case KindInt:
			// pad to a 4-byte multiple before regrouping into cells
			for len(raw)%4 != 0 {
				raw = append(raw, 0)
			}
			p.Ints = decodeU32(raw)
		case KindInt64:
			for len(raw)%8 != 0 {
				raw = append(raw, 0)
			}
			p.Int64s = decodeU64(raw)
		}
	}
	p.padTo(targetLen)
	p.Scalar = false
	p.markDirty()
}

func (p *Prop) padTo(n int) {
	switch p.Kind {
	case KindString:
		for len(p.Strings) < n {
			p.Strings = append(p.Strings, "")
		}
	case KindByte:
		for len(p.Bytes) < n {
			p.Bytes = append(p.Bytes, 0)
		}
	case KindInt:
		for len(p.Ints) < n {
			p.Ints = append(p.Ints, 0)
		}
	case KindInt64:
		for len(p.Int64s) < n {
			p.Int64s = append(p.Int64s, 0)
		}
	}
}

// ByteLen reports the size, in bytes, of the property's current
// on-the-wire encoding — the unit Widen's byte-reinterpretation rule
// actually operates in, independent of the element count under the
// property's current Kind.
func (p *Prop) ByteLen() int { return len(p.raw()) }

// Len reports the element count of the property's current value (1 for a
// bare scalar or boolean flag).
func (p *Prop) Len() int {
	switch p.Kind {
	case KindString:
		return len(p.Strings)
	case KindByte:
		return len(p.Bytes)
	case KindInt:
		return len(p.Ints)
	case KindInt64:
		return len(p.Int64s)
	default:
		return 1
	}
}
