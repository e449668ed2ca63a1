package platdata

import "github.com/tinyrange/dtoc/internal/fdt"

func cellsOrDefault(n *fdt.Node, name string, def uint32) uint32 {
	p := n.Prop(name)
	if p == nil || len(p.Ints) == 0 {
		return def
	}
	return p.Ints[0]
}

func cellsToU64(cells []uint32) uint64 {
	var v uint64
	for _, c := range cells {
		v = (v << 32) | uint64(c)
	}
	return v
}

// ScanRegSizes promotes every valid node's reg property from a flat INT
// cell list to a list of 64-bit (address, size) pairs whenever the parent's
// #address-cells or #size-cells exceeds 1, per spec.md §4.4.
func (c *Compiler) ScanRegSizes() error {
	for _, dev := range c.Devices {
		n := dev.Node
		reg := n.Prop("reg")
		if reg == nil {
			continue
		}
		parent := n.Parent
		if parent == nil {
			continue
		}
		if len(parent.Props) == 0 {
			return &InvariantError{Node: n.Path, Reason: "parent has no properties (check bootph-* guidance)"}
		}
		na := cellsOrDefault(parent, "#address-cells", 2)
		ns := cellsOrDefault(parent, "#size-cells", 2)
		total := reg.Len()
		if uint32(total)%(na+ns) != 0 {
			return &InvariantError{Node: n.Path, Reason: "reg cell count not a multiple of na+ns"}
		}
		if na <= 1 && ns <= 1 {
			continue
		}
		cells := reg.Ints
		pairs := total / int(na+ns)
		vals := make([]uint64, 0, pairs*2)
		idx := 0
		for p := 0; p < pairs; p++ {
			addr := cellsToU64(cells[idx : idx+int(na)])
			idx += int(na)
			size := cellsToU64(cells[idx : idx+int(ns)])
			idx += int(ns)
			vals = append(vals, addr, size)
		}
		reg.Kind = fdt.KindInt64
		reg.Int64s = vals
		reg.Ints = nil
		reg.Scalar = false
		reg.Dirty = true
	}
	return nil
}
