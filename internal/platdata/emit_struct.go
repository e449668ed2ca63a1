package platdata

import (
	"fmt"
	"io"
	"sort"

	"github.com/tinyrange/dtoc/internal/fdt"
)

// familyNames returns every struct family name known to the compiler, in
// sorted order.
func (c *Compiler) familyNames() []string {
	seen := map[string]bool{}
	for _, dev := range c.Devices {
		seen[dev.StructName] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// fieldNames returns the full, sorted property-name emission order for one
// struct family: its widened scalar fields plus its phandle fields.
func (c *Compiler) fieldNames(family string) []string {
	seen := map[string]bool{}
	if layout, ok := c.Layouts[family]; ok {
		for _, n := range layout.Order {
			seen[n] = true
		}
	}
	for n := range c.PhandleLayouts[family] {
		seen[n] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EmitStructs writes dt-structs-gen.h: one `struct dtd_<name> { ... };`
// per struct family, in sorted order.
func (c *Compiler) EmitStructs(w io.Writer) error {
	writeBanner(w, "Generated platform data struct declarations")
	for _, family := range c.familyNames() {
		fmt.Fprintf(w, "struct %s%s {\n", StructPrefix, family)
		for _, name := range c.fieldNames(family) {
			member := memberNameToC(name)
			if pl, ok := c.PhandleLayouts[family][name]; ok {
				fmt.Fprintf(w, "\tstruct %s %s[%d];\n", phandleStructName(pl.MaxArgs), member, pl.MaxCount)
				continue
			}
			field := c.Layouts[family].Fields[name]
			typeName := cTypeName(field.Kind)
			if field.Kind == fdt.KindBool || field.MaxLen <= 1 {
				fmt.Fprintf(w, "\t%s %s;\n", typeName, member)
			} else {
				fmt.Fprintf(w, "\t%s %s[%d];\n", typeName, member, field.MaxLen)
			}
		}
		fmt.Fprintf(w, "};\n\n")
	}
	return nil
}
