package platdata

import (
	"sort"
	"strings"

	"github.com/tinyrange/dtoc/internal/fdt"
)

// Field is the widened, struct-family-wide type of one property name: the
// kind and length every node in the family will be padded/converted to
// before emission.
type Field struct {
	Name   string
	Kind   fdt.Kind
	MaxLen int
}

var ignoredProps = map[string]bool{
	"#address-cells": true,
	"#gpio-cells":    true,
	"#size-cells":    true,
	"compatible":     true,
	"linux,phandle":  true,
	"status":         true,
	"phandle":        true,
}

func isIgnoredProp(name string) bool {
	if ignoredProps[name] {
		return true
	}
	if strings.HasPrefix(name, "#") || strings.HasPrefix(name, "bootph-") {
		return true
	}
	return false
}

// ScanStructs groups valid nodes by struct family and computes, for each
// non-ignored property name observed anywhere in the family, the widest
// Kind and longest element count across every node that carries it; it
// then widens every individual occurrence to match, so emission can assume
// a single uniform layout per struct family.
func (c *Compiler) ScanStructs() {
	families := map[string][]*Device{}
	for _, dev := range c.Devices {
		families[dev.StructName] = append(families[dev.StructName], dev)
	}

	for family, devs := range families {
		fields := map[string]*Field{}
		maxBytes := map[string]int{}
		var order []string
		for _, dev := range devs {
			for _, name := range dev.Node.PropNames() {
				if isIgnoredProp(name) {
					continue
				}
				if _, ok := phandleCellsPropFor(name); ok {
					continue // laid out from resolved tuples, not scalar widening
				}
				p := dev.Node.Prop(name)
				f, ok := fields[name]
				if !ok {
					f = &Field{Name: name, Kind: p.Kind, MaxLen: p.Len()}
					fields[name] = f
					maxBytes[name] = p.ByteLen()
					order = append(order, name)
					continue
				}
				if fdt.Wider(f.Kind, p.Kind) {
					f.Kind = p.Kind
				}
				if p.Len() > f.MaxLen {
					f.MaxLen = p.Len()
				}
				if p.ByteLen() > maxBytes[name] {
					maxBytes[name] = p.ByteLen()
				}
			}
		}
		// MaxLen above was accumulated in each observation's own,
		// pre-widening Kind's units; once the family's final Kind is
		// known, re-derive it in that Kind's units from the raw byte
		// length so e.g. an INT widened to BYTE sizes the declared
		// array in bytes, not cells.
		for name, f := range fields {
			if n := fdt.ElementsForKind(f.Kind, maxBytes[name]); n > f.MaxLen {
				f.MaxLen = n
			}
		}
		sort.Strings(order)
		for _, dev := range devs {
			for _, name := range order {
				f := fields[name]
				p := dev.Node.Prop(name)
				if p == nil {
					continue
				}
				if p.Kind != f.Kind || p.Len() < f.MaxLen {
					p.Widen(f.Kind, f.MaxLen)
				}
			}
		}
		c.Layouts[family] = &FamilyLayout{Fields: fields, Order: order}
	}
}

// FamilyLayout is the widened field set for one struct family, in the
// alphabetical emission order the struct emitter uses.
type FamilyLayout struct {
	Fields map[string]*Field
	Order  []string
}
