package platdata

// PhandleFieldLayout is the struct-family-wide shape of one phandle field:
// the widest per-tuple arg count and the most tuples any node in the
// family carries, used to size `struct phandle_<MaxArgs>_arg NAME[<MaxCount>]`.
type PhandleFieldLayout struct {
	MaxArgs  int
	MaxCount int
}

// computePhandleLayouts aggregates every Device's resolved PhandleFields,
// grouped by struct family, into the per-family/per-property layout the
// struct emitter needs. It must run after ScanPhandles.
func (c *Compiler) computePhandleLayouts() {
	c.PhandleLayouts = map[string]map[string]*PhandleFieldLayout{}
	for _, dev := range c.Devices {
		if len(dev.Phandles) == 0 {
			continue
		}
		layouts, ok := c.PhandleLayouts[dev.StructName]
		if !ok {
			layouts = map[string]*PhandleFieldLayout{}
			c.PhandleLayouts[dev.StructName] = layouts
		}
		for name, field := range dev.Phandles {
			l, ok := layouts[name]
			if !ok {
				l = &PhandleFieldLayout{}
				layouts[name] = l
			}
			if field.MaxArgs > l.MaxArgs {
				l.MaxArgs = field.MaxArgs
			}
			if len(field.Tuples) > l.MaxCount {
				l.MaxCount = len(field.Tuples)
			}
		}
	}
}
