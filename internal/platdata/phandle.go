package platdata

import (
	"strings"

	"github.com/tinyrange/dtoc/internal/fdt"
)

// phandleCellsProp maps a phandle-bearing property name suffix to the
// #foo-cells property its target nodes must carry.
var phandleCellsProp = map[string]string{
	"clocks":              "#clock-cells",
	"interrupts-extended": "#interrupt-cells",
	"gpios":               "#gpio-cells",
	"sandbox,emul":        "#emul-cells",
}

func phandleCellsPropFor(name string) (string, bool) {
	for suffix, cellsProp := range phandleCellsProp {
		if strings.HasSuffix(name, suffix) {
			return cellsProp, true
		}
	}
	return "", false
}

// ScanPhandles recognizes phandle-bearing properties on every valid node
// and resolves each (phandle, args...) tuple encoded in their INT cells,
// per spec.md §4.3. A zero phandle terminates the tuple list early,
// tolerating trailing zero-padded arrays.
func (c *Compiler) ScanPhandles() error {
	for _, dev := range c.Devices {
		for _, name := range dev.Node.PropNames() {
			cellsProp, ok := phandleCellsPropFor(name)
			if !ok {
				continue
			}
			prop := dev.Node.Prop(name)
			if prop.Kind != fdt.KindInt {
				continue
			}
			field, err := c.resolvePhandleProp(dev, name, cellsProp, prop.Ints)
			if err != nil {
				return err
			}
			if dev.Phandles == nil {
				dev.Phandles = map[string]*PhandleField{}
			}
			dev.Phandles[name] = field
		}
	}
	c.computePhandleLayouts()
	return nil
}

func (c *Compiler) resolvePhandleProp(dev *Device, name, cellsProp string, cells []uint32) (*PhandleField, error) {
	field := &PhandleField{}
	i := 0
	for i < len(cells) {
		ph := cells[i]
		i++
		if ph == 0 {
			break
		}
		target := c.Fdt.LookupPhandle(ph)
		if target == nil {
			return nil, &PhandleError{Node: dev.Node.Path, Prop: name, Reason: "invalid phandle"}
		}
		cp := target.Prop(cellsProp)
		if cp == nil || len(cp.Ints) == 0 {
			return nil, &PhandleError{Node: dev.Node.Path, Prop: name, Reason: "target missing " + cellsProp}
		}
		k := int(cp.Ints[0])
		if i+k > len(cells) {
			return nil, &PhandleError{Node: dev.Node.Path, Prop: name, Reason: "truncated phandle argument list"}
		}
		args := append([]uint32(nil), cells[i:i+k]...)
		i += k

		idx := -1
		if td, ok := c.ByPath[target.Path]; ok {
			idx = td.Idx
		}
		field.Tuples = append(field.Tuples, PhandleTuple{TargetIdx: idx, Args: args})
		if len(args) > field.MaxArgs {
			field.MaxArgs = len(args)
		}
	}
	return field, nil
}
